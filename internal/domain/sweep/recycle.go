package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"salescrm/internal/pkg/metrics"
)

type RecycleResult struct {
	Matched  int `json:"matched"`
	Released int `json:"released"`
	Failed   int `json:"failed"`
}

// Recycler returns owned leads marked unreachable to the pool once they
// have gone untouched for longer than the threshold.
type Recycler struct {
	leads Releaser
	after time.Duration
	log   zerolog.Logger
}

func NewRecycler(leads Releaser, after time.Duration, log zerolog.Logger) *Recycler {
	return &Recycler{leads: leads, after: after, log: log}
}

// Run releases each matching lead on its own; one failure does not stop the rest.
// A lead touched after it was matched is left alone.
func (r *Recycler) Run(ctx context.Context, now time.Time) (RecycleResult, error) {
	var res RecycleResult
	cutoff := now.Add(-r.after)

	ids, err := r.leads.FindRecyclable(ctx, cutoff)
	if err != nil {
		metrics.RecordSweep(string(JobRecycle), false)
		return res, err
	}
	res.Matched = len(ids)

	for _, id := range ids {
		released, err := r.leads.ReleaseIfRecyclable(ctx, id, cutoff)
		if err != nil {
			res.Failed++
			r.log.Error().Err(err).Int64("lead_id", id).Msg("recycle lead failed")
			continue
		}
		if released {
			res.Released++
		}
	}

	metrics.RecordRecycled(res.Released)
	metrics.RecordSweep(string(JobRecycle), res.Failed == 0)
	r.log.Info().
		Int("matched", res.Matched).
		Int("released", res.Released).
		Int("failed", res.Failed).
		Time("cutoff", cutoff).
		Msg("recycle sweep finished")
	return res, nil
}
