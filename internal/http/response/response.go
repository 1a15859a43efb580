package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rentalchat-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError maps a service error onto its status and code. Server
// errors never leak their cause to the client.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.As(err)
	if ae == nil {
		ae = apierr.Server(nil)
	}
	if ae.Code == apierr.CodeServerError {
		if err != nil {
			_ = c.Error(err)
		}
		c.JSON(ae.Status, ErrorEnvelope{Error: APIError{Message: "internal error", Code: string(ae.Code)}})
		return
	}
	RespondError(c, ae.Status, string(ae.Code), ae)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
