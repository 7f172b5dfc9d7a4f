package errors

import "fmt"

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

var (
	ErrConfigInvalid = &AppError{Code: "CONFIG_001", Message: "invalid configuration"}

	ErrUnauthorized       = &AppError{Code: "AUTH_001", Message: "unauthorized"}
	ErrInvalidCredentials = &AppError{Code: "AUTH_002", Message: "invalid email or password"}
	ErrEmailTaken         = &AppError{Code: "AUTH_003", Message: "email already registered"}

	ErrValidation       = &AppError{Code: "VAL_001", Message: "missing or invalid fields"}
	ErrPastAppointment  = &AppError{Code: "VAL_002", Message: "appointment is in the past"}
	ErrNoReminderTimes  = &AppError{Code: "VAL_003", Message: "reminders require at least one time of day"}
	ErrInvalidFrequency = &AppError{Code: "VAL_004", Message: "unknown medication frequency"}

	ErrProfileNotFound     = &AppError{Code: "NF_001", Message: "health profile not found"}
	ErrMedicationNotFound  = &AppError{Code: "NF_002", Message: "medication not found"}
	ErrAppointmentNotFound = &AppError{Code: "NF_003", Message: "appointment not found"}
	ErrReminderNotFound    = &AppError{Code: "NF_004", Message: "active reminder not found"}
	ErrLocationNotFound    = &AppError{Code: "NF_005", Message: "location not found"}

	ErrPlacesKeyMissing = &AppError{Code: "PLACES_001", Message: "maps API key not configured"}
	ErrPlacesDenied     = &AppError{Code: "PLACES_002", Message: "maps API access denied"}
	ErrPlacesQuota      = &AppError{Code: "PLACES_003", Message: "maps API quota exceeded"}
	ErrPlacesUpstream   = &AppError{Code: "PLACES_004", Message: "maps API request failed"}

	ErrChannelUnavailable = &AppError{Code: "NOTIFY_001", Message: "notification channel unavailable"}

	ErrNotFound   = &AppError{Code: "GEN_001", Message: "resource not found"}
	ErrBadRequest = &AppError{Code: "GEN_002", Message: "bad request"}
	ErrInternal   = &AppError{Code: "GEN_003", Message: "internal error"}
)

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}
