package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"salescrm/internal/domain/lead"
	"salescrm/internal/domain/user"
)

// Service answers the pending reminders poll.
type Service struct {
	leads  DueFinder
	marks  *MarkStore
	loc    *time.Location
	window time.Duration
	ttl    time.Duration
	log    zerolog.Logger
}

func NewService(leads DueFinder, marks *MarkStore, loc *time.Location, window, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		leads:  leads,
		marks:  marks,
		loc:    loc,
		window: window,
		ttl:    ttl,
		log:    log,
	}
}

// Pending returns leads due within the window around now that the actor
// has not been shown yet. Reps only see their own leads.
func (s *Service) Pending(ctx context.Context, actor user.Actor, now time.Time) ([]Pending, error) {
	var owner *int64
	if !actor.IsAdmin {
		id := actor.ID
		owner = &id
	}

	due, err := s.leads.FindDueWithin(ctx, now.Add(-s.window), now.Add(s.window), owner)
	if err != nil {
		return nil, err
	}

	out := make([]Pending, 0, len(due))
	for i := range due {
		l := &due[i]
		if l.NextContactTime == nil {
			continue
		}
		fresh, err := s.marks.MarkOnce(ctx, actor.ID, MarkKey(l.ID, *l.NextContactTime), now, s.ttl)
		if err != nil {
			return nil, fmt.Errorf("mark reminder for lead %d: %w", l.ID, err)
		}
		if !fresh {
			continue
		}
		out = append(out, Pending{
			CustomerID:      l.ID,
			CustomerName:    l.Name,
			NextContactTime: lead.FormatLocal(l.NextContactTime, s.loc),
			Status:          l.Status.Label(),
			Phone:           l.Phone,
			Notes:           l.Notes,
		})
	}

	if len(out) > 0 {
		s.log.Debug().Int64("user_id", actor.ID).Int("count", len(out)).Msg("pending reminders shown")
	}
	return out, nil
}

// PurgeExpired removes markers that can no longer suppress anything.
func (s *Service) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.marks.PurgeExpired(ctx, now)
}
