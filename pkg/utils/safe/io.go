package safe

import (
	"context"
	"io"

	"github.com/m-mizutani/acpdex/pkg/utils/errors"
	"github.com/m-mizutani/goerr/v2"
)

func Close(ctx context.Context, c io.Closer) {
	if err := c.Close(); err != nil {
		errors.Handle(ctx, goerr.Wrap(err, "failed to close by safe.Close"))
	}
}
