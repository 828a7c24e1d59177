package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"salescrm/internal/domain/reminder"
	"salescrm/internal/pkg/metrics"
)

type RemindResult struct {
	Matched   int `json:"matched"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

// ReminderSweep notifies owners of follow-ups scheduled in the current minute.
type ReminderSweep struct {
	leads    DueLister
	notifier reminder.Notifier
	loc      *time.Location
	log      zerolog.Logger
}

func NewReminderSweep(leads DueLister, notifier reminder.Notifier, loc *time.Location, log zerolog.Logger) *ReminderSweep {
	return &ReminderSweep{leads: leads, notifier: notifier, loc: loc, log: log}
}

// Run covers [minute, minute+1m) of now. Pool leads have nobody to remind.
func (s *ReminderSweep) Run(ctx context.Context, now time.Time) (RemindResult, error) {
	var res RemindResult
	from := now.UTC().Truncate(time.Minute)

	due, err := s.leads.FindDueBetween(ctx, from, from.Add(time.Minute), nil, true)
	if err != nil {
		metrics.RecordSweep(string(JobRemind), false)
		return res, err
	}
	res.Matched = len(due)

	for i := range due {
		msg := reminder.NewMessage(&due[i], s.loc)
		if err := s.notifier.Notify(ctx, msg); err != nil {
			res.Failed++
			s.log.Error().Err(err).Int64("lead_id", msg.LeadID).Str("owner", msg.Owner).Msg("reminder delivery failed")
			continue
		}
		res.Delivered++
		s.log.Info().Int64("lead_id", msg.LeadID).Msg(msg.Text())
	}

	metrics.RecordSweep(string(JobRemind), res.Failed == 0)
	if res.Matched > 0 {
		s.log.Info().
			Int("matched", res.Matched).
			Int("delivered", res.Delivered).
			Int("failed", res.Failed).
			Msg("reminder sweep finished")
	}
	return res, nil
}
