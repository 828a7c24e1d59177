package customfield

import "time"

type FieldType string

const (
	TypeText        FieldType = "text"
	TypeTextarea    FieldType = "textarea"
	TypeNumber      FieldType = "number"
	TypeDate        FieldType = "date"
	TypeDatetime    FieldType = "datetime"
	TypeSelect      FieldType = "select"
	TypeMultiselect FieldType = "multiselect"
)

func (t FieldType) Valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeNumber, TypeDate, TypeDatetime, TypeSelect, TypeMultiselect:
		return true
	}
	return false
}

func (t FieldType) HasOptions() bool {
	return t == TypeSelect || t == TypeMultiselect
}

// FieldDefinition describes one admin-defined lead attribute. Values live in
// the lead's extra_data under FieldName; definitions never alter lead columns.
type FieldDefinition struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	FieldName   string    `gorm:"size:50;uniqueIndex;not null" json:"field_name"`
	Label       string    `gorm:"size:100;not null" json:"label"`
	FieldType   FieldType `gorm:"size:20;not null" json:"field_type"`
	Options     []string  `gorm:"serializer:json" json:"options"`
	IsRequired  bool      `gorm:"not null" json:"is_required"`
	Placeholder string    `gorm:"size:200" json:"placeholder"`
	HelpText    string    `gorm:"size:200" json:"help_text"`
	Order       int       `gorm:"column:sort_order;not null" json:"order"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (FieldDefinition) TableName() string { return "custom_fields" }

func (d *FieldDefinition) hasOption(v string) bool {
	for _, o := range d.Options {
		if o == v {
			return true
		}
	}
	return false
}

// Defaults are created by the seed command when missing.
var Defaults = []FieldDefinition{
	{FieldName: "custom_field_1", Label: "关键信息", FieldType: TypeText, Order: 1, IsActive: true},
	{FieldName: "custom_field_2", Label: "跟进记录", FieldType: TypeTextarea, Order: 2, IsActive: true},
	{FieldName: "custom_field_3", Label: "客户标签", FieldType: TypeText, Order: 3, IsActive: true},
	{FieldName: "custom_field_4", Label: "其他信息", FieldType: TypeText, Order: 4, IsActive: true},
}
