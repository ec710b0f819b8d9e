package types

import "github.com/angelmondragon/tiny-inventory/pkg/pagination"

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

type SuccessEnvelope struct {
	Status     string           `json:"status"`
	Data       any              `json:"data,omitempty"`
	Message    string           `json:"message"`
	Pagination *pagination.Meta `json:"pagination,omitempty"`
}

// ErrorEnvelope uses "fail" for client errors and "error" for server errors.
type ErrorEnvelope struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Error   any    `json:"error,omitempty"`
}

// ErrorStatus picks the envelope status for an HTTP status code.
func ErrorStatus(httpStatus int) string {
	if httpStatus >= 500 {
		return StatusError
	}
	return StatusFail
}
