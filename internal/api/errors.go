package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
)

// httpError maps an HTTP failure to the CLI error taxonomy, carrying
// the Retry-After hint and request id when the server provided them.
func httpError(status int, header http.Header, context string, body []byte) *apperr.Error {
	retryAfter := 0
	if v := header.Get("Retry-After"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			retryAfter = n
		}
	}

	details := map[string]any{
		"status": status,
		"reason": http.StatusText(status),
	}
	if id := header.Get("X-Request-Id"); id != "" {
		details["request_id"] = id
	}
	if len(body) > 0 {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err == nil {
			details["body"] = decoded
		} else {
			details["body"] = string(body)
		}
	}

	var err *apperr.Error
	switch status {
	case http.StatusUnauthorized:
		err = apperr.Auth("Authentication failed - check your API key")
	case http.StatusForbidden:
		err = apperr.Auth(fmt.Sprintf("Access denied - %s", context))
	case http.StatusNotFound:
		err = apperr.NotFound(fmt.Sprintf("%s not found", context))
	case http.StatusTooManyRequests:
		err = apperr.RateLimited("Rate limit exceeded").WithRetryAfter(retryAfter)
	default:
		err = apperr.General(fmt.Sprintf("HTTP %d %s", status, http.StatusText(status)))
	}
	return err.WithDetails(details)
}

// graphqlError surfaces the GraphQL errors array as a CLI error.
func graphqlError(errs any) *apperr.Error {
	return apperr.General("GraphQL error").WithDetails(map[string]any{"errors": errs})
}
