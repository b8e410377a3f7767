package errors

import "fmt"

type HTTPError struct {
	Code       string
	Message    string
	StatusCode int
}

func NewHTTPError(statusCode int, code, message string) *HTTPError {
	return &HTTPError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s - %s", e.Code, e.Message)
}
