package errors

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/acpdex/pkg/utils/logging"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs an error that is not propagated further. Collection and
// rendering failures surface here at the top of a command, keeping their
// goerr values attached.
func Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	logger := ctxlog.From(ctx)
	if goErr := goerr.Unwrap(err); goErr != nil {
		var attrs []any
		for k, v := range goErr.Values() {
			attrs = append(attrs, slog.Any(k, v))
		}
		logger.With(slog.Group("values", attrs...)).Error("error occurred", logging.ErrAttr(err))
		return
	}

	logger.Error("error occurred", logging.ErrAttr(err))
}
