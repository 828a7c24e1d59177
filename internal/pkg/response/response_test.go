package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func run(t *testing.T, fn func(c *gin.Context)) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestCustomError_HidesInternalErrors(t *testing.T) {
	w, env := run(t, func(c *gin.Context) {
		CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", errors.New("pq: connection refused"))
		assert.Len(t, c.Errors, 1)
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestCustomError_FieldDetails(t *testing.T) {
	w, env := run(t, func(c *gin.Context) {
		CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", map[string]string{"Phone": "required"})
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "required", env.Error.Details["Phone"])
}
