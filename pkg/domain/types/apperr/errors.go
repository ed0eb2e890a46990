package apperr

import "github.com/m-mizutani/goerr/v2"

// Endpoint client errors
var (
	ErrRequestTimeout = goerr.New("request timed out",
		goerr.T(ErrTagTimeout)).ID("ERR_REQUEST_TIMEOUT")

	ErrHTTPStatus = goerr.New("unexpected HTTP status",
		goerr.T(ErrTagHTTPError)).ID("ERR_HTTP_STATUS")

	ErrMalformedPayload = goerr.New("malformed response payload",
		goerr.T(ErrTagMalformed)).ID("ERR_MALFORMED_PAYLOAD")
)

// Aggregation errors
var (
	ErrMissingAgentID = goerr.New("entry has no usable agent id",
		goerr.T(ErrTagInvalidID)).ID("ERR_MISSING_AGENT_ID")
)
