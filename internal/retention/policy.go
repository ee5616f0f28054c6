// Package retention decides which files fall inside a technology's lookback
// window and whether a local file is removed after it has been uploaded.
package retention

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Sayam753/SendToS3/internal/apperr"
)

// Day is the unit of the lookback window.
const Day = 24 * time.Hour

// MaxLookbackDays is the largest window representable as a time.Duration.
// Longer windows include every file that is not stamped in the future.
const MaxLookbackDays = int(math.MaxInt64 / int64(Day))

// Action is what happens to a local file after a successful upload.
type Action string

const (
	// ActionKeep leaves the local file in place.
	ActionKeep Action = "keep"
	// ActionDelete removes the local file once its upload succeeded.
	ActionDelete Action = "delete"
)

// Status is the result of a single upload attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Policy is the retention rule of one technology.
type Policy struct {
	Technology   string
	LookbackDays int
	Action       Action
}

// ParseAction converts a configured action ("keep" or "delete", any case).
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionKeep:
		return ActionKeep, nil
	case ActionDelete:
		return ActionDelete, nil
	default:
		return "", apperr.Configuration("invalid action %q (expected: keep, delete)", s)
	}
}

// InWindow reports whether a file modified at modifiedAt is eligible for
// upload at now. The boundary is inclusive: a file exactly lookbackDays old
// is still in the window. Files stamped in the future are not.
func InWindow(modifiedAt, now time.Time, lookbackDays int) bool {
	if lookbackDays < 0 {
		return false
	}
	age := now.Sub(modifiedAt)
	if lookbackDays > MaxLookbackDays {
		return age >= 0
	}
	return age >= 0 && age <= time.Duration(lookbackDays)*Day
}

// InWindow applies the policy's own lookback.
func (p Policy) InWindow(modifiedAt, now time.Time) bool {
	return InWindow(modifiedAt, now, p.LookbackDays)
}

// PostAction reports whether the local file must be deleted after an upload
// that ended with status.
func PostAction(action Action, status Status) bool {
	return action == ActionDelete && status == StatusSuccess
}

// Cutoff returns the oldest modification time still inside the window.
// The zero time means the window has no lower bound.
func Cutoff(now time.Time, lookbackDays int) time.Time {
	if lookbackDays > MaxLookbackDays {
		return time.Time{}
	}
	return now.Add(-time.Duration(lookbackDays) * Day)
}

func (p Policy) String() string {
	return fmt.Sprintf("%s: %d days, %s", p.Technology, p.LookbackDays, p.Action)
}
