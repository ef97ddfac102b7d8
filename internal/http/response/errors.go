package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/platform/apierr"
)

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeValidation:           http.StatusBadRequest,
	domain.CodeNotFound:             http.StatusNotFound,
	domain.CodeAuthorization:        http.StatusForbidden,
	domain.CodeUpstreamDependency:   http.StatusBadGateway,
	domain.CodeMalformedModelOutput: http.StatusBadGateway,
	domain.CodeStateConflict:        http.StatusConflict,
	domain.CodeQuotaExceeded:        http.StatusTooManyRequests,
	domain.CodeInternal:             http.StatusInternalServerError,
}

// StatusForCode maps a domain error code to its HTTP status. Unknown codes are 500.
func StatusForCode(code domain.ErrorCode) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// FromError converts err to an apierr.Error, keeping one that is already typed.
func FromError(err error) *apierr.Error {
	if err == nil {
		return nil
	}
	if ae, ok := apierr.As(err); ok {
		return ae
	}
	code := domain.CodeOf(err)
	if code == "" {
		code = domain.CodeInternal
	}
	msg := domain.MessageOf(err)
	if code == domain.CodeInternal {
		msg = "internal error"
	}
	return apierr.New(StatusForCode(code), string(code), msg, err)
}

// RespondAPIError writes err using the error envelope. Only the public
// message leaves the process.
func RespondAPIError(c *gin.Context, err error) {
	ae := FromError(err)
	if ae == nil {
		ae = apierr.New(http.StatusInternalServerError, string(domain.CodeInternal), "", nil)
	}
	status := ae.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if ae.Retryable() {
		c.Header("Cache-Control", "no-store")
	}
	RespondMessage(c, status, ae.Code, ae.Message)
}
