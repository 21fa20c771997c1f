package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/opsforge/opsforge-ai/internal/errdefs"
	"github.com/opsforge/opsforge-ai/internal/orchestrator"
)

// APIError is the structured error response body. Code is stable API surface
// so callers can decide programmatically whether to retry.
type APIError struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// Error codes exposed to callers.
const (
	ErrCodeInvalidRequest            = "INVALID_REQUEST"
	ErrCodeInternalError             = "INTERNAL_ERROR"
	ErrCodeCollaboratorUnavailable   = "COLLABORATOR_UNAVAILABLE"
	ErrCodeMalformedResponse         = "MALFORMED_RESPONSE"
	ErrCodeClassificationUnavailable = "CLASSIFICATION_UNAVAILABLE"
	ErrCodeUnrecognizedIntent        = "UNRECOGNIZED_INTENT"
)

// respondError maps a platform error to a structured response. Internal
// detail is never exposed; the category tag is.
func respondError(w http.ResponseWriter, requestID string, err error) {
	var routingErr *orchestrator.RoutingError
	if errors.As(err, &routingErr) {
		respondStructuredError(w, http.StatusUnprocessableEntity, ErrCodeUnrecognizedIntent,
			routingErr.Error(), requestID, map[string]string{
				"supported": joinSupported(routingErr.Supported),
			})
		return
	}

	switch errdefs.CategoryOf(err) {
	case errdefs.CategoryCollaboratorUnavailable:
		respondStructuredError(w, http.StatusBadGateway, ErrCodeCollaboratorUnavailable,
			"cluster backend unavailable", requestID, nil)
	case errdefs.CategoryMalformedResponse:
		respondStructuredError(w, http.StatusBadGateway, ErrCodeMalformedResponse,
			"reasoning engine returned malformed output", requestID, nil)
	case errdefs.CategoryClassificationUnavailable:
		respondStructuredError(w, http.StatusServiceUnavailable, ErrCodeClassificationUnavailable,
			"intent classification unavailable, retry later", requestID, map[string]string{
				"supported": joinSupported(orchestrator.SupportedIntents),
			})
	case errdefs.CategoryInvalidRequest:
		respondStructuredError(w, http.StatusBadRequest, ErrCodeInvalidRequest,
			err.Error(), requestID, nil)
	default:
		respondStructuredError(w, http.StatusInternalServerError, ErrCodeInternalError,
			"internal error", requestID, nil)
	}
}

func respondStructuredError(w http.ResponseWriter, status int, code, message, requestID string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{
		Error:     message,
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Details:   details,
	})
}

// invalidRequest tags a caller error so respondError maps it to 400.
func invalidRequest(message string) error {
	return errdefs.New(errdefs.CategoryInvalidRequest, message)
}

func joinSupported(supported []string) string {
	out := ""
	for i, s := range supported {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
