package backup

import (
	"context"
	"time"

	"github.com/Sayam753/SendToS3/internal/objectkey"
	"github.com/Sayam753/SendToS3/internal/retention"
	"github.com/Sayam753/SendToS3/internal/selector"
)

// PlannedFile is a file the next run would upload.
type PlannedFile struct {
	Candidate selector.Candidate
	Key       string
}

// PlannedTechnology groups the planned files of one technology.
type PlannedTechnology struct {
	Technology Technology
	Prefix     string
	Cutoff     time.Time // zero when the window has no lower bound
	Files      []PlannedFile
	Errors     []error // per-entry stat and key errors
	Err        error   // directory could not be listed
}

// Plan lists what Run would upload now without touching the object store
// or the local files.
func (r *Runner) Plan(ctx context.Context) []PlannedTechnology {
	plans := make([]PlannedTechnology, 0, len(r.params.Technologies))
	now := r.now()

	for _, t := range r.params.Technologies {
		if ctx.Err() != nil {
			break
		}
		pt := PlannedTechnology{
			Technology: t,
			Prefix:     objectkey.Prefix(r.params.Site, t.Name, r.params.Hostname),
			Cutoff:     retention.Cutoff(now, t.Policy.LookbackDays),
		}

		seq, err := selector.Select(t.Path, t.Pattern, t.Policy.LookbackDays, now)
		if err != nil {
			pt.Err = err
			plans = append(plans, pt)
			continue
		}

		for c, err := range seq {
			if err != nil {
				pt.Errors = append(pt.Errors, err)
				continue
			}
			key, err := objectkey.Build(r.params.Site, t.Name, r.params.Hostname, c.ModifiedAt, c.Name)
			if err != nil {
				pt.Errors = append(pt.Errors, err)
				continue
			}
			pt.Files = append(pt.Files, PlannedFile{Candidate: c, Key: key})
		}
		plans = append(plans, pt)
	}

	return plans
}

// Count returns the number of planned files across technologies.
func Count(plans []PlannedTechnology) int {
	n := 0
	for _, p := range plans {
		n += len(p.Files)
	}
	return n
}
