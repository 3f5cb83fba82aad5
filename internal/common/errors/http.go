// internal/common/errors/http.go
package errors

import "net/http"

// HTTPStatus maps a pipeline error to the status code the API boundary
// should answer with. Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeApplicationValidationFailed:
		return http.StatusBadRequest
	case ErrCodeDecisionNotFound:
		return http.StatusNotFound
	case ErrCodeDispatchFailed:
		return http.StatusBadGateway
	case ErrCodeCacheReadFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
