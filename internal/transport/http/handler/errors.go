package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"infosec-dashboard/internal/auth"
	"infosec-dashboard/internal/chat"
	"infosec-dashboard/internal/gateway"
	"infosec-dashboard/internal/transport/http/response"
)

// classify maps a domain error to the HTTP status, response code and the
// message shown to the user.
func classify(err error, fallback string) (int, int, string) {
	switch {
	case errors.Is(err, gateway.ErrNoCredential):
		return http.StatusUnauthorized, response.CodeNoCredential, "sign in again to continue"
	case errors.Is(err, gateway.ErrInvalidSheetURL):
		return http.StatusBadRequest, response.CodeInvalidSheetURL, err.Error()
	case errors.Is(err, gateway.ErrInvalidUpload):
		return http.StatusBadRequest, response.CodeInvalidUpload, err.Error()
	case errors.Is(err, gateway.ErrMalformedResponse):
		return http.StatusBadGateway, response.CodeUpstreamMalformed, fallback
	case errors.Is(err, gateway.ErrTransport):
		return http.StatusBadGateway, response.CodeUpstreamFailure, fallback
	case errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest, response.CodeEmptyMessage, err.Error()
	case errors.Is(err, chat.ErrReplyPending):
		return http.StatusConflict, response.CodeReplyPending, err.Error()
	case errors.Is(err, auth.ErrPasswordMismatch):
		return http.StatusBadRequest, response.CodePasswordMismatch, err.Error()
	case errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest, response.CodeBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCredential):
		return http.StatusUnauthorized, response.CodeInvalidCredentials, auth.ErrInvalidCredential.Error()
	case errors.Is(err, auth.ErrVerificationRequired):
		return http.StatusForbidden, response.CodeVerificationRequired, err.Error()
	case errors.Is(err, auth.ErrSessionExpired):
		return http.StatusUnauthorized, response.CodeUnauthorized, err.Error()
	case errors.Is(err, auth.ErrIdentityUnavailable):
		return http.StatusBadGateway, response.CodeUpstreamFailure, fallback
	}
	return http.StatusInternalServerError, response.CodeInternalServer, fallback
}

func writeError(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)
	status, code, msg := classify(err, fallback)
	response.Error(c, status, code, msg)
}

func writeErrorWithData(c *gin.Context, err error, fallback string, data interface{}) {
	_ = c.Error(err)
	status, code, msg := classify(err, fallback)
	response.ErrorWithData(c, status, code, msg, data)
}
