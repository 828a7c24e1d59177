package lead

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"salescrm/internal/domain/user"
	"salescrm/internal/pkg/response"
	"salescrm/internal/pkg/validator"
)

// Handler handles lead HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates lead handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListLeads handles GET /api/v1/leads
// Query: status (repeatable), city, q, sort, page, owner (admin only)
func (h *Handler) ListLeads(c *gin.Context) {
	h.list(c, ListQuery{})
}

// ListVisited handles GET /api/v1/leads/visited
func (h *Handler) ListVisited(c *gin.Context) {
	h.list(c, ListQuery{Statuses: []Status{StatusVisited}})
}

// ListSigned handles GET /api/v1/leads/signed
func (h *Handler) ListSigned(c *gin.Context) {
	h.list(c, ListQuery{Statuses: []Status{StatusSigned}})
}

// ListKey handles GET /api/v1/leads/key
func (h *Handler) ListKey(c *gin.Context) {
	h.list(c, ListQuery{KeyOnly: true})
}

func (h *Handler) list(c *gin.Context, preset ListQuery) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	q, ok := parseListQuery(c, preset)
	if !ok {
		return
	}

	leads, total, err := h.service.List(c.Request.Context(), actor, q)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toListResponse(leads, total, q))
}

// ListPool handles GET /api/v1/pool
func (h *Handler) ListPool(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	q, ok := parseListQuery(c, ListQuery{})
	if !ok {
		return
	}

	leads, total, err := h.service.Pool(c.Request.Context(), actor, q)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toListResponse(leads, total, q))
}

// GetLead handles GET /api/v1/leads/:id
func (h *Handler) GetLead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	l, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewLeadResponse(l))
}

// CreateLead handles POST /api/v1/leads
func (h *Handler) CreateLead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req LeadInput
	if !bindAndValidate(c, &req) {
		return
	}

	l, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, NewLeadResponse(l))
}

// UpdateLead handles PUT /api/v1/leads/:id
func (h *Handler) UpdateLead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req LeadInput
	if !bindAndValidate(c, &req) {
		return
	}

	l, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewLeadResponse(l))
}

// BatchAdd handles POST /api/v1/leads/batch
func (h *Handler) BatchAdd(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req BatchAddRequest
	if !bindAndValidate(c, &req) {
		return
	}

	res, err := h.service.BatchAdd(c.Request.Context(), actor, req.Rows)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// ClaimLeads handles POST /api/v1/pool/claim
func (h *Handler) ClaimLeads(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req IDsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	n, err := h.service.Claim(c.Request.Context(), actor, req.IDs)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, BulkResult{Affected: n})
}

// AssignLead handles PATCH /api/v1/leads/:id/assign (admin)
func (h *Handler) AssignLead(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req AssignRequest
	if !bindAndValidate(c, &req) {
		return
	}

	l, err := h.service.Assign(c.Request.Context(), actor, id, req.SalesRepID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewLeadResponse(l))
}

// ReleaseLeads handles POST /api/v1/leads/release (admin)
func (h *Handler) ReleaseLeads(c *gin.Context) {
	h.bulkIDs(c, h.service.ReleaseToPool)
}

// BulkDelete handles POST /api/v1/leads/bulk-delete (admin)
func (h *Handler) BulkDelete(c *gin.Context) {
	h.bulkIDs(c, h.service.BulkDelete)
}

// BulkEdit handles POST /api/v1/leads/bulk-edit (admin)
func (h *Handler) BulkEdit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req BulkEditRequest
	if !bindAndValidate(c, &req) {
		return
	}

	n, err := h.service.BulkEdit(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, BulkResult{Affected: n})
}

// Dashboard handles GET /api/v1/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	days, err := h.service.Dashboard(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"days": days})
}

// Statuses handles GET /api/v1/leads/statuses
func (h *Handler) Statuses(c *gin.Context) {
	response.Success(c, http.StatusOK, StatusOptions())
}

func (h *Handler) bulkIDs(c *gin.Context, fn func(ctx context.Context, actor user.Actor, ids []int64) (int64, error)) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req IDsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	n, err := fn(c.Request.Context(), actor, req.IDs)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, BulkResult{Affected: n})
}

func requireActor(c *gin.Context) (user.Actor, bool) {
	actor, ok := user.ActorFrom(c)
	if !ok {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return user.Actor{}, false
	}
	return actor, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid lead ID")
		return 0, false
	}
	return id, true
}

func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", errs)
		return false
	}
	return true
}

func parseListQuery(c *gin.Context, preset ListQuery) (ListQuery, bool) {
	q := preset

	if len(q.Statuses) == 0 {
		for _, raw := range c.QueryArray("status") {
			for _, part := range strings.Split(raw, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				st, ok := ParseStatus(part)
				if !ok {
					response.CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", map[string]string{"status": "invalid choice"})
					return q, false
				}
				q.Statuses = append(q.Statuses, st)
			}
		}
	}

	q.City = c.Query("city")
	q.Search = c.Query("q")
	q.Sort = c.Query("sort")

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			q.Page = v
		}
	}
	if q.Page == 0 {
		q.Page = 1
	}
	q.PageSize = DefaultPageSize

	if o := c.Query("owner"); o != "" {
		if v, err := strconv.ParseInt(o, 10, 64); err == nil && v > 0 {
			q.OwnerID = &v
		}
	}
	return q, true
}

func toListResponse(leads []Lead, total int64, q ListQuery) LeadListResponse {
	out := make([]LeadResponse, 0, len(leads))
	for i := range leads {
		out = append(out, NewLeadResponse(&leads[i]))
	}
	return LeadListResponse{Leads: out, Total: total, Page: q.Page, PageSize: q.PageSize}
}

func writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", verr.Fields)
	case errors.Is(err, ErrLeadNotFound):
		response.CustomError(c, http.StatusNotFound, "LEAD_NOT_FOUND", "Lead not found")
	case errors.Is(err, ErrForbidden):
		response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission for this lead")
	case errors.Is(err, ErrOwnerNotAllowed):
		response.CustomError(c, http.StatusForbidden, "OWNER_NOT_ALLOWED", "You can only assign leads to yourself or the pool")
	case errors.Is(err, ErrInvalidOwner):
		response.CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", map[string]string{"sales_rep_id": "must be an active staff user"})
	case errors.Is(err, ErrPhoneExists):
		response.CustomError(c, http.StatusConflict, "PHONE_EXISTS", "A lead with this phone already exists")
	case errors.Is(err, ErrNotAvailable):
		response.ErrorWithDetails(c, http.StatusConflict, "NOT_AVAILABLE", "Selected leads were already claimed", BulkResult{})
	case errors.Is(err, ErrEmptySelection):
		response.CustomError(c, http.StatusBadRequest, "EMPTY_SELECTION", "No leads selected")
	default:
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
	}
}
