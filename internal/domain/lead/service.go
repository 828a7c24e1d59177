package lead

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"salescrm/internal/domain/user"
	"salescrm/internal/pkg/metrics"
)

type Service struct {
	repo   *Repository
	owners OwnerDirectory
	extras ExtraNormalizer
	loc    *time.Location
	log    zerolog.Logger
	now    func() time.Time
}

// NewService wires lead use cases. extras may be nil, in which case
// extension values are stored unchecked.
func NewService(repo *Repository, owners OwnerDirectory, extras ExtraNormalizer, loc *time.Location, log zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:   repo,
		owners: owners,
		extras: extras,
		loc:    loc,
		log:    log.With().Str("component", "lead").Logger(),
		now:    time.Now,
	}
}

func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) Create(ctx context.Context, actor user.Actor, in LeadInput) (*Lead, error) {
	owner := DefaultOwner(actor)
	if in.SalesRepID != nil {
		var err error
		if owner, err = resolveOwner(ctx, s.owners, actor, poolIfZero(in.SalesRepID)); err != nil {
			return nil, err
		}
	}

	l, err := s.buildLead(ctx, in)
	if err != nil {
		return nil, err
	}
	l.SalesRepID = owner

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, l.ID)
}

// Update replaces the editable fields of a lead the actor may write.
func (s *Service) Update(ctx context.Context, actor user.Actor, id int64, in LeadInput) (*Lead, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, l, ActionWrite); err != nil {
		return nil, err
	}
	owner, err := resolveOwner(ctx, s.owners, actor, poolIfZero(in.SalesRepID))
	if err != nil {
		return nil, err
	}
	status, err := s.statusOrDefault(in.Status)
	if err != nil {
		return nil, err
	}
	extra, err := s.normalizeExtra(ctx, in.ExtraData)
	if err != nil {
		return nil, err
	}

	_, err = s.repo.Update(ctx, id, func(cur *Lead) error {
		if err := Authorize(actor, cur, ActionWrite); err != nil {
			return err
		}
		cur.Name = strings.TrimSpace(in.Name)
		cur.Phone = strings.TrimSpace(in.Phone)
		cur.Status = status
		cur.SalesRepID = owner
		cur.Source = in.Source
		cur.Province = in.Province
		cur.CityAuto = in.CityAuto
		cur.RegionManual = in.RegionManual
		cur.NextContactTime = in.NextContactTime
		cur.IsKeyCustomer = in.IsKeyCustomer
		cur.Notes = in.Notes
		cur.Extra = extra
		if in.CreatedAt != nil {
			cur.CreatedAt = *in.CreatedAt
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Get(ctx context.Context, actor user.Actor, id int64) (*Lead, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, l, ActionRead); err != nil {
		return nil, err
	}
	return l, nil
}

// List shows all leads to admins and only owned leads to reps.
func (s *Service) List(ctx context.Context, actor user.Actor, q ListQuery) ([]Lead, int64, error) {
	q.PoolOnly = false
	if !actor.IsAdmin {
		id := actor.ID
		q.OwnerID = &id
	}
	return s.repo.List(ctx, q)
}

// Pool lists unowned leads; it looks the same to every actor.
func (s *Service) Pool(ctx context.Context, _ user.Actor, q ListQuery) ([]Lead, int64, error) {
	q.PoolOnly = true
	q.OwnerID = nil
	return s.repo.List(ctx, q)
}

// Claim takes pool leads for the actor. Leads claimed by someone else in the
// meantime are skipped; claiming none of them is ErrNotAvailable.
func (s *Service) Claim(ctx context.Context, actor user.Actor, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}

	n, err := s.repo.Claim(ctx, ids, actor.ID)
	if err != nil {
		return 0, err
	}
	metrics.RecordClaim(n > 0)
	if n == 0 {
		return 0, ErrNotAvailable
	}

	s.log.Info().Int64("user_id", actor.ID).Int64("claimed", n).Int("requested", len(ids)).Msg("leads claimed")
	return n, nil
}

// Assign sets the owner of one lead; nil or zero releases it to the pool.
func (s *Service) Assign(ctx context.Context, actor user.Actor, id int64, ownerID *int64) (*Lead, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, l, ActionAdmin); err != nil {
		return nil, err
	}

	owner, err := resolveOwner(ctx, s.owners, actor, poolIfZero(ownerID))
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.SetOwner(ctx, []int64{id}, owner); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ReleaseToPool(ctx context.Context, actor user.Actor, ids []int64) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}
	return s.repo.SetOwner(ctx, ids, nil)
}

func (s *Service) BulkEdit(ctx context.Context, actor user.Actor, req BulkEditRequest) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if len(req.IDs) == 0 {
		return 0, ErrEmptySelection
	}

	var affected int64
	if req.Status != "" {
		if !req.Status.Valid() {
			return 0, NewValidationError("status", "invalid choice")
		}
		n, err := s.repo.SetStatus(ctx, req.IDs, req.Status)
		if err != nil {
			return 0, err
		}
		affected = n
	}

	if req.SalesRepID != nil {
		releasing := *req.SalesRepID == 0
		if !(releasing && req.View == "pool") {
			owner, err := resolveOwner(ctx, s.owners, actor, poolIfZero(req.SalesRepID))
			if err != nil {
				return 0, err
			}
			n, err := s.repo.SetOwner(ctx, req.IDs, owner)
			if err != nil {
				return 0, err
			}
			if n > affected {
				affected = n
			}
		}
	}

	s.log.Info().Int64("user_id", actor.ID).Int("selected", len(req.IDs)).Int64("affected", affected).Msg("bulk edit")
	return affected, nil
}

func (s *Service) BulkDelete(ctx context.Context, actor user.Actor, ids []int64) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}

	n, err := s.repo.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int64("user_id", actor.ID).Int64("deleted", n).Msg("bulk delete")
	return n, nil
}

// BatchAdd creates pasted leads. Phones already on file are skipped and the
// owner follows the creator's role.
func (s *Service) BatchAdd(ctx context.Context, actor user.Actor, rows []BatchRow) (*BatchResult, error) {
	res := &BatchResult{Errors: []string{}}

	for i, row := range rows {
		in, err := s.RowInput(row)
		if err != nil {
			res.AddError(fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if in.Name == "" || in.Phone == "" {
			res.AddError(fmt.Sprintf("row %d: name and phone are required", i+1))
			continue
		}

		exists, err := s.repo.ExistsPhone(ctx, in.Phone)
		if err != nil {
			return nil, err
		}
		if exists {
			res.Skipped++
			continue
		}

		l, err := s.buildLead(ctx, in)
		if err != nil {
			res.AddError(fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		l.SalesRepID = DefaultOwner(actor)
		if l.CreatedAt.IsZero() {
			l.CreatedAt = s.now()
		}

		if err := s.repo.Create(ctx, l); err != nil {
			if errors.Is(err, ErrPhoneExists) {
				res.Skipped++
				continue
			}
			res.AddError(fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		res.Created++
	}

	s.log.Info().Int64("user_id", actor.ID).Int("created", res.Created).Int("skipped", res.Skipped).Int("failed", res.Failed).Msg("batch add")
	return res, nil
}

// GetOrCreateByPhone finds the lead by phone or creates it from build, then
// hands it to the importer: admins put it in the pool, reps take it.
// build runs only for new phones. Existing leads keep their other fields;
// the save stamps last_contact_at.
func (s *Service) GetOrCreateByPhone(ctx context.Context, actor user.Actor, phone string, build func() (LeadInput, error)) (*Lead, bool, error) {
	owner := DefaultOwner(actor)
	phone = strings.TrimSpace(phone)

	existing, err := s.repo.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, ErrLeadNotFound) {
		return nil, false, err
	}
	if existing == nil {
		in, err := build()
		if err != nil {
			return nil, false, err
		}
		in.Phone = phone
		l, err := s.buildLead(ctx, in)
		if err != nil {
			return nil, false, err
		}
		l.SalesRepID = owner
		err = s.repo.Create(ctx, l)
		if err == nil {
			return l, true, nil
		}
		if !errors.Is(err, ErrPhoneExists) {
			return nil, false, err
		}
		// created concurrently; fall through and take it over
		if existing, err = s.repo.GetByPhone(ctx, phone); err != nil {
			return nil, false, err
		}
	}

	l, err := s.repo.Update(ctx, existing.ID, func(cur *Lead) error {
		cur.SalesRepID = owner
		return nil
	})
	return l, false, err
}

// ExportLeads returns every lead, or only signed ones, for spreadsheet export.
func (s *Service) ExportLeads(ctx context.Context, actor user.Actor, signedOnly bool) ([]Lead, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	q := ListQuery{}
	if signedOnly {
		q.Statuses = []Status{StatusSigned}
	}
	return s.repo.All(ctx, q)
}

// Dashboard groups upcoming follow-ups by local calendar day.
func (s *Service) Dashboard(ctx context.Context, actor user.Actor) ([]DashboardDay, error) {
	var owner *int64
	if !actor.IsAdmin {
		id := actor.ID
		owner = &id
	}

	now := s.now()
	leads, err := s.repo.FutureTasks(ctx, owner, now)
	if err != nil {
		return nil, err
	}

	today := now.In(s.loc).Format("2006-01-02")
	days := []DashboardDay{}
	for i := range leads {
		l := &leads[i]
		date := l.NextContactTime.In(s.loc).Format("2006-01-02")
		if len(days) == 0 || days[len(days)-1].Date != date {
			days = append(days, DashboardDay{Date: date, IsToday: date == today})
		}
		day := &days[len(days)-1]
		day.Tasks = append(day.Tasks, DashboardTask{
			ID:              l.ID,
			Name:            l.Name,
			Phone:           l.Phone,
			Status:          l.Status,
			StatusLabel:     l.Status.Label(),
			NextContactTime: FormatLocal(l.NextContactTime, s.loc),
			SalesRepName:    l.OwnerName(),
		})
	}
	return days, nil
}

func (s *Service) buildLead(ctx context.Context, in LeadInput) (*Lead, error) {
	status, err := s.statusOrDefault(in.Status)
	if err != nil {
		return nil, err
	}
	extra, err := s.normalizeExtra(ctx, in.ExtraData)
	if err != nil {
		return nil, err
	}
	if in.ContactCount < 0 {
		return nil, NewValidationError("contact_count", "must not be negative")
	}

	l := &Lead{
		Name:            strings.TrimSpace(in.Name),
		Phone:           strings.TrimSpace(in.Phone),
		Status:          status,
		Source:          in.Source,
		Province:        in.Province,
		CityAuto:        in.CityAuto,
		RegionManual:    in.RegionManual,
		ContactCount:    in.ContactCount,
		NextContactTime: in.NextContactTime,
		IsKeyCustomer:   in.IsKeyCustomer,
		Notes:           in.Notes,
		Extra:           extra,
	}
	if in.CreatedAt != nil {
		l.CreatedAt = *in.CreatedAt
	}
	return l, nil
}

// RowInput converts a text row (paste or spreadsheet) to a lead input.
func (s *Service) RowInput(row BatchRow) (LeadInput, error) {
	in := LeadInput{
		Name:         strings.TrimSpace(row.Name),
		Phone:        strings.TrimSpace(row.Phone),
		Source:       strings.TrimSpace(row.Source),
		Province:     strings.TrimSpace(row.Province),
		CityAuto:     strings.TrimSpace(row.CityAuto),
		RegionManual: strings.TrimSpace(row.RegionManual),
		ContactCount: row.ContactCount,
		Notes:        row.Notes,
	}

	if v := strings.TrimSpace(row.Status); v != "" {
		st, ok := ParseStatus(v)
		if !ok {
			return in, fmt.Errorf("unknown status %q", v)
		}
		in.Status = st
	}

	var err error
	if in.NextContactTime, err = ParseTime(row.NextContactTime, s.loc); err != nil {
		return in, err
	}
	// an unreadable created_at is stamped at insert time
	if t, err := ParseTime(row.CreatedAt, s.loc); err == nil {
		in.CreatedAt = t
	}
	if note := strings.TrimSpace(row.Note); note != "" {
		in.ExtraData = Extra{NoteKey: Text(note)}
	}
	return in, nil
}

func (s *Service) statusOrDefault(st Status) (Status, error) {
	if st == "" {
		return StatusWaitContact, nil
	}
	if !st.Valid() {
		return "", NewValidationError("status", "invalid choice")
	}
	return st, nil
}

func (s *Service) normalizeExtra(ctx context.Context, extra Extra) (Extra, error) {
	if s.extras == nil {
		return extra.Clone(), nil
	}
	return s.extras.Normalize(ctx, extra)
}

func requireAdmin(actor user.Actor) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func poolIfZero(id *int64) *int64 {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
