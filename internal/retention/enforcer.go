package retention

import (
	"os"

	"github.com/Sayam753/SendToS3/internal/apperr"
	"github.com/Sayam753/SendToS3/internal/logger"
)

// Outcome is the record of one file's trip through the pipeline.
type Outcome struct {
	LocalPath      string
	Technology     string
	RemoteKey      string
	Size           int64
	Status         Status
	ErrorDetail    string
	DeletedLocally bool
}

// Failed reports whether the upload did not succeed.
func (o Outcome) Failed() bool {
	return o.Status != StatusSuccess
}

// AddDetail appends an error description, keeping earlier ones.
func (o *Outcome) AddDetail(err error) {
	if err == nil {
		return
	}
	if o.ErrorDetail == "" {
		o.ErrorDetail = err.Error()
		return
	}
	o.ErrorDetail += "; " + err.Error()
}

// Enforcer removes local files that the policy says should not be kept.
type Enforcer struct {
	remove func(string) error
	logger *logger.Logger
}

// NewEnforcer creates an enforcer that deletes with os.Remove.
func NewEnforcer(log *logger.Logger) *Enforcer {
	if log == nil {
		log = logger.Nop()
	}
	return &Enforcer{remove: os.Remove, logger: log}
}

// Enforce applies the policy to outcome and returns the updated copy.
// A failed removal is recorded in ErrorDetail; Status is left untouched
// because the upload already succeeded.
func (e *Enforcer) Enforce(outcome Outcome, policy Policy) Outcome {
	if !PostAction(policy.Action, outcome.Status) {
		return outcome
	}

	if err := e.remove(outcome.LocalPath); err != nil {
		ioErr := apperr.IO("delete %s: %w", outcome.LocalPath, err)
		e.logger.Error("Unable to delete local file, delete it manually", ioErr,
			logger.Field{Key: "path", Value: outcome.LocalPath},
			logger.Field{Key: "technology", Value: policy.Technology})
		outcome.AddDetail(ioErr)
		return outcome
	}

	outcome.DeletedLocally = true
	e.logger.Debug("Deleted local file",
		logger.Field{Key: "path", Value: outcome.LocalPath},
		logger.Field{Key: "technology", Value: policy.Technology})
	return outcome
}
