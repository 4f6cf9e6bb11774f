package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                   = 0
	CodeBadRequest           = 40000
	CodePasswordMismatch     = 40001
	CodeInvalidSheetURL      = 40002
	CodeInvalidUpload        = 40003
	CodeEmptyMessage         = 40004
	CodeUnauthorized         = 40100
	CodeInvalidCredentials   = 40101
	CodeNoCredential         = 40102
	CodeVerificationRequired = 40300
	CodeReplyPending         = 40900
	CodeInternalServer       = 50000
	CodeUpstreamFailure      = 50200
	CodeUpstreamMalformed    = 50201
	CodeUnavailable          = 50300
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

// ErrorWithData is Error with a payload, used when a failed call still has
// state worth showing.
func ErrorWithData(c *gin.Context, httpStatus, code int, message string, data interface{}) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
