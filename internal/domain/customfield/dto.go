package customfield

type FieldRequest struct {
	FieldName   string    `json:"field_name" validate:"required,max=50"`
	Label       string    `json:"label" validate:"required,max=100"`
	FieldType   FieldType `json:"field_type" validate:"required,oneof=text textarea number date datetime select multiselect"`
	Options     []string  `json:"options" validate:"omitempty,dive,required,max=100"`
	IsRequired  bool      `json:"is_required"`
	Placeholder string    `json:"placeholder" validate:"max=200"`
	HelpText    string    `json:"help_text" validate:"max=200"`
	Order       int       `json:"order"`
	IsActive    *bool     `json:"is_active"`
}
