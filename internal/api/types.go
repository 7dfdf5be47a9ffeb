package api

import "time"

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type HealthDTO struct {
	Status  string            `json:"status"`
	Backend string            `json:"backend"`
	Checks  map[string]string `json:"checks"`
	AsOf    int64             `json:"asOf"`
}

func newHealthDTO(backend string) HealthDTO {
	return HealthDTO{
		Status:  "ok",
		Backend: backend,
		Checks:  make(map[string]string),
		AsOf:    time.Now().Unix(),
	}
}

// Error codes written in ErrorResponse.Code
const (
	CodeInvalidJSON        = "INVALID_JSON"
	CodeInvalidForm        = "INVALID_FORM"
	CodeUnsupportedMedia   = "UNSUPPORTED_MEDIA_TYPE"
	CodeInvalidID          = "INVALID_ID"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeAuthorNotFound     = "AUTHOR_NOT_FOUND"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeNotImplemented     = "NOT_IMPLEMENTED"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeStorageError       = "STORAGE_ERROR"
)
