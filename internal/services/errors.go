// Package services holds the prediction logic shared by the JSON API and the
// dashboard: record parsing, feature preparation, model scoring and event
// publishing.
package services

// Error codes returned by the services
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeSchemaMismatch   = "SCHEMA_MISMATCH"
	CodePredictionFailed = "PREDICTION_FAILED"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func wrapServiceError(code string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: err.Error(), Err: err}
}
