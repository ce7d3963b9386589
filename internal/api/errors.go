package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sessionhub/internal/session"
)

// Error kinds rendered by the HTTP edge itself
const (
	kindUnauthorized = "unauthorized"
	kindBadRequest   = "bad_request"
	kindRateLimited  = "rate_limited"
	kindInternal     = string(session.KindInternal)
	kindPersistence  = string(session.KindPersistence)
	kindNotFound     = string(session.KindNotFound)

	kindExternalService = string(session.KindExternalService)
)

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

var kindStatus = map[session.Kind]int{
	session.KindValidation:      http.StatusBadRequest,
	session.KindNotFound:        http.StatusNotFound,
	session.KindForbidden:       http.StatusForbidden,
	session.KindConflict:        http.StatusConflict,
	session.KindExternalService: http.StatusBadGateway,
	session.KindPersistence:     http.StatusInternalServerError,
	session.KindInternal:        http.StatusInternalServerError,
}

// statusFor maps a coordinator error onto an HTTP status.
// FUNCTIONAL DISCOVERY: Ending an already completed session is a conflict in
// the domain but clients have always received 400 for it
func statusFor(err error) int {
	if errors.Is(err, session.ErrAlreadyCompleted) {
		return http.StatusBadRequest
	}
	if status, ok := kindStatus[session.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// sendError writes the error body and aborts the handler chain
func (s *Server) sendError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    status,
		Kind:    kind,
		Message: message,
	})
}

// handleError renders err. Only the fixed reason text of a coordinator
// error reaches the client; causes are logged.
func (s *Server) handleError(c *gin.Context, err error) {
	status := statusFor(err)
	log := requestLogger(c, s.log).WithError(err)

	var coordErr *session.Error
	if !errors.As(err, &coordErr) {
		log.Error("Unhandled error")
		s.sendError(c, http.StatusInternalServerError, kindInternal, "internal server error")
		return
	}

	if status >= http.StatusInternalServerError {
		log.Error("Request failed")
	} else {
		log.Debug("Request rejected")
	}
	s.sendError(c, status, string(coordErr.Kind), coordErr.Message())
}
