package customfield

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salescrm/internal/domain/lead"
	"salescrm/internal/domain/user"
)

var fieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

var datetimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// List returns active definitions; admins may include inactive ones.
func (s *Service) List(ctx context.Context, actor user.Actor, includeInactive bool) ([]FieldDefinition, error) {
	return s.repo.List(ctx, !(includeInactive && actor.IsAdmin))
}

func (s *Service) Create(ctx context.Context, actor user.Actor, req FieldRequest) (*FieldDefinition, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	d := &FieldDefinition{IsActive: true}
	apply(d, req)
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Update(ctx context.Context, actor user.Actor, id int64, req FieldRequest) (*FieldDefinition, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(d, req)
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, actor user.Actor, id int64) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) EnsureDefaults(ctx context.Context) (int, error) {
	return s.repo.EnsureDefaults(ctx, Defaults)
}

// Normalize keeps the reserved note and values for active definitions,
// drops every other key, and checks each value against its field type.
// Lists are kept only for multiselect fields.
func (s *Service) Normalize(ctx context.Context, extra lead.Extra) (lead.Extra, error) {
	defs, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, err
	}

	out := lead.Extra{}
	if note, ok := extra[lead.NoteKey]; ok {
		out[lead.NoteKey] = lead.Text(note.String())
	}

	verr := &lead.ValidationError{}
	for i := range defs {
		d := &defs[i]
		if d.FieldName == lead.NoteKey {
			continue
		}

		raw, present := extra[d.FieldName]
		if !present || isBlank(raw) {
			if d.IsRequired {
				verr.Add(fieldKey(d), "required")
			}
			continue
		}

		v, msg := normalizeValue(d, raw)
		if msg != "" {
			verr.Add(fieldKey(d), msg)
			continue
		}
		out[d.FieldName] = v
	}

	if !verr.Empty() {
		return nil, verr
	}
	return out, nil
}

func normalizeValue(d *FieldDefinition, raw lead.ExtraValue) (lead.ExtraValue, string) {
	text := strings.TrimSpace(raw.String())

	switch d.FieldType {
	case TypeNumber:
		n, err := decimal.NewFromString(text)
		if err != nil {
			return lead.ExtraValue{}, "must be a number"
		}
		return lead.Text(n.String()), ""
	case TypeDate:
		if _, err := time.Parse("2006-01-02", text); err != nil {
			return lead.ExtraValue{}, "must be a date (YYYY-MM-DD)"
		}
		return lead.Text(text), ""
	case TypeDatetime:
		for _, layout := range datetimeLayouts {
			if _, err := time.Parse(layout, text); err == nil {
				return lead.Text(text), ""
			}
		}
		return lead.ExtraValue{}, "must be a date and time"
	case TypeSelect:
		if !d.hasOption(text) {
			return lead.ExtraValue{}, "invalid choice"
		}
		return lead.Text(text), ""
	case TypeMultiselect:
		values := make([]string, 0, len(raw.Values()))
		for _, v := range raw.Values() {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if !d.hasOption(v) {
				return lead.ExtraValue{}, "invalid choice " + v
			}
			values = append(values, v)
		}
		return lead.List(values...), ""
	default:
		return lead.Text(raw.String()), ""
	}
}

func isBlank(v lead.ExtraValue) bool {
	for _, s := range v.Values() {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

func fieldKey(d *FieldDefinition) string {
	return "extra_data." + d.FieldName
}

func checkRequest(req FieldRequest) error {
	verr := &lead.ValidationError{}
	if !fieldNamePattern.MatchString(req.FieldName) {
		verr.Add("field_name", "must start with a letter and use lowercase letters, digits or underscores")
	}
	if req.FieldName == lead.NoteKey {
		verr.Add("field_name", "reserved")
	}
	if !req.FieldType.Valid() {
		verr.Add("field_type", "invalid choice")
	}
	if req.FieldType.HasOptions() && len(req.Options) == 0 {
		verr.Add("options", "required for select fields")
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}

func apply(d *FieldDefinition, req FieldRequest) {
	d.FieldName = req.FieldName
	d.Label = strings.TrimSpace(req.Label)
	d.FieldType = req.FieldType
	d.Options = nil
	if req.FieldType.HasOptions() {
		d.Options = req.Options
	}
	d.IsRequired = req.IsRequired
	d.Placeholder = req.Placeholder
	d.HelpText = req.HelpText
	d.Order = req.Order
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}
}
