package response

import "github.com/gin-gonic/gin"

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// CustomError accepts a plain message, an error, or field details.
// Errors are recorded on the context for the request logger; the client only sees a generic message.
func CustomError(c *gin.Context, statusCode int, code string, message any) {
	switch m := message.(type) {
	case string:
		Error(c, statusCode, code, m)
	case error:
		_ = c.Error(m)
		Error(c, statusCode, code, "Internal server error")
	case map[string]string:
		ErrorWithDetails(c, statusCode, code, "Validation failed", m)
	default:
		ErrorWithDetails(c, statusCode, code, code, m)
	}
}
