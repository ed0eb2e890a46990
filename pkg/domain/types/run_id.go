package types

import (
	"context"

	"github.com/google/uuid"
	"github.com/m-mizutani/acpdex/pkg/utils/errors"
	"github.com/m-mizutani/goerr/v2"
)

// RunID identifies a single collection run, used to correlate the result
// set, the warning report and the log output of one run.
type RunID string

func NewRunID(ctx context.Context) RunID {
	return RunID(newUUID(ctx))
}

func (id RunID) String() string {
	return string(id)
}

// IsValid checks if the RunID is valid
func (id RunID) IsValid() bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(string(id))
	return err == nil
}

func newUUID(ctx context.Context) string {
	id, err := uuid.NewV7()
	if err != nil {
		errors.Handle(ctx, goerr.Wrap(err, "failed to generate uuid V7, fallback to V4"))
		return uuid.New().String()
	}

	return id.String()
}
