package apperr

import "github.com/m-mizutani/goerr/v2"

// Endpoint client errors
var (
	ErrTagTimeout   = goerr.NewTag("timeout")
	ErrTagHTTPError = goerr.NewTag("http_error")
	ErrTagMalformed = goerr.NewTag("malformed")
)

// Aggregation errors. Per-record degradations are not errors: they are
// reported as agent.Warning values, so only the fatal bulk-fetch case
// carries a tag.
var (
	ErrTagFatalFetch = goerr.NewTag("fatal_fetch")
)

// Validation errors
var (
	ErrTagValidation = goerr.NewTag("validation")
	ErrTagInvalidID  = goerr.NewTag("invalid_id")
)

// Rendering errors
var (
	ErrTagRender = goerr.NewTag("render")
)
