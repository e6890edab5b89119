package responses

import "github.com/gin-gonic/gin"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Success(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, APIResponse{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// Fail writes an error envelope. err is the detail shown to the client: it
// must already be safe to expose.
func Fail(c *gin.Context, statusCode int, err error, message string) {
	resp := APIResponse{
		Status:  StatusError,
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(statusCode, resp)
}

// FailWithData is Fail with a machine-readable payload, such as the rule a
// validation error broke.
func FailWithData(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, APIResponse{
		Status:  StatusError,
		Message: message,
		Error:   message,
		Data:    data,
	})
}
