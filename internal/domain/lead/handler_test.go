package lead

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salescrm/internal/domain/user"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := newFixture(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User-ID"); id != "" {
			uid, _ := strconv.ParseInt(id, 10, 64)
			c.Set(user.CtxUserID, uid)
			c.Set(user.CtxIsAdmin, c.GetHeader("X-Test-Admin") == "1")
		}
		c.Next()
	})

	h := NewHandler(f.svc)
	v1 := r.Group("/api/v1")
	RegisterRoutes(v1, h)
	RegisterAdminRoutes(v1, h)
	return r, f
}

func doJSONRequest(r http.Handler, method, path string, body any, actor *user.Actor) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("X-Test-User-ID", strconv.FormatInt(actor.ID, 10))
		if actor.IsAdmin {
			req.Header.Set("X-Test-Admin", "1")
		}
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func TestLeadEndpoints_Unauthorized(t *testing.T) {
	r, _ := setupTestRouter(t)

	rr := doJSONRequest(r, http.MethodGet, "/api/v1/leads", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLeadEndpoints_CreateClaimFlow(t *testing.T) {
	r, f := setupTestRouter(t)

	rr := doJSONRequest(r, http.MethodPost, "/api/v1/leads", map[string]any{"name": "张三", "phone": "13900000000"}, &f.admin)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created LeadResponse
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &created))
	assert.Nil(t, created.SalesRepID)
	assert.Equal(t, "待沟通", created.StatusLabel)

	rr = doJSONRequest(r, http.MethodGet, "/api/v1/pool", nil, &f.alice)
	require.Equal(t, http.StatusOK, rr.Code)
	var list LeadListResponse
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &list))
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, DefaultPageSize, list.PageSize)

	rr = doJSONRequest(r, http.MethodPost, "/api/v1/pool/claim", map[string]any{"ids": []int64{created.ID}}, &f.alice)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSONRequest(r, http.MethodPost, "/api/v1/pool/claim", map[string]any{"ids": []int64{created.ID}}, &f.bob)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "NOT_AVAILABLE", decode(t, rr).Error.Code)

	rr = doJSONRequest(r, http.MethodGet, "/api/v1/leads/"+strconv.FormatInt(created.ID, 10), nil, &f.bob)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestLeadEndpoints_RepCannotAssignToOthers(t *testing.T) {
	r, f := setupTestRouter(t)
	l := f.create(t, f.alice, "13911111111", nil)

	body := map[string]any{"name": l.Name, "phone": l.Phone, "sales_rep_id": f.bob.ID}
	rr := doJSONRequest(r, http.MethodPut, "/api/v1/leads/"+strconv.FormatInt(l.ID, 10), body, &f.alice)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "OWNER_NOT_ALLOWED", decode(t, rr).Error.Code)

	rr = doJSONRequest(r, http.MethodPost, "/api/v1/leads/bulk-delete", map[string]any{"ids": []int64{l.ID}}, &f.alice)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestLeadEndpoints_Validation(t *testing.T) {
	r, f := setupTestRouter(t)

	rr := doJSONRequest(r, http.MethodPost, "/api/v1/leads", map[string]any{"name": "x"}, &f.alice)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rr).Error.Code)

	rr = doJSONRequest(r, http.MethodPost, "/api/v1/leads", map[string]any{"name": "x", "phone": "1", "status": "closed"}, &f.alice)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	f.create(t, f.alice, "555", nil)
	rr = doJSONRequest(r, http.MethodPost, "/api/v1/leads", map[string]any{"name": "x", "phone": "555"}, &f.alice)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "PHONE_EXISTS", decode(t, rr).Error.Code)

	rr = doJSONRequest(r, http.MethodGet, "/api/v1/leads/abc", nil, &f.alice)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
