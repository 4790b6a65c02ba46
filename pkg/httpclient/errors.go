package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/gigmarket/pkg/errors"
)

// downstreamError mirrors the {"error":{"code","message"}} envelope written
// by httputil.
type downstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes a non-2xx response body and turns
// it into an error. Structured envelopes keep their code and message.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var downstream downstreamError
	if json.Unmarshal(body, &downstream) != nil || downstream.Error == nil {
		return fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, string(body))
	}

	code, message := downstream.Error.Code, fmt.Sprintf("%s: %s", serviceName, downstream.Error.Message)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return apperrors.New(code, message, http.StatusNotFound, apperrors.ErrNotFound)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.New(code, message, resp.StatusCode, apperrors.ErrInvalidInput)
	case http.StatusConflict:
		return apperrors.New(code, message, http.StatusConflict, apperrors.ErrConflict)
	case http.StatusUnauthorized:
		return apperrors.New(code, message, http.StatusUnauthorized, apperrors.ErrUnauthorized)
	case http.StatusForbidden:
		return apperrors.New(code, message, http.StatusForbidden, apperrors.ErrForbidden)
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return apperrors.New(code, message, http.StatusServiceUnavailable, apperrors.ErrServiceUnavail)
	default:
		return fmt.Errorf("%s returned status %d (%s): %s", serviceName, resp.StatusCode, code, downstream.Error.Message)
	}
}
