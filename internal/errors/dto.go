package errors

// ErrorResponse is the body every failed request returns. Swagger
// annotations reference it; the error handler middleware produces the
// matching shape.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries the hint-derived display message and any reportable
// details attached through the builder. Internal messages never appear here.
type ErrorDetail struct {
	Display string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
