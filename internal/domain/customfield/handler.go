package customfield

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"salescrm/internal/domain/lead"
	"salescrm/internal/domain/user"
	"salescrm/internal/pkg/response"
	"salescrm/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListFields handles GET /api/v1/fields?all=1
func (h *Handler) ListFields(c *gin.Context) {
	actor, _ := user.ActorFrom(c)
	defs, err := h.service.List(c.Request.Context(), actor, c.Query("all") == "1")
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, defs)
}

// CreateField handles POST /api/v1/fields
func (h *Handler) CreateField(c *gin.Context) {
	var req FieldRequest
	if !bind(c, &req) {
		return
	}

	actor, _ := user.ActorFrom(c)
	d, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, d)
}

// UpdateField handles PUT /api/v1/fields/:id
func (h *Handler) UpdateField(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid field ID")
		return
	}

	var req FieldRequest
	if !bind(c, &req) {
		return
	}

	actor, _ := user.ActorFrom(c)
	d, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d)
}

// DeleteField handles DELETE /api/v1/fields/:id
func (h *Handler) DeleteField(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid field ID")
		return
	}

	actor, _ := user.ActorFrom(c)
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Field deleted"})
}

func bind(c *gin.Context, req *FieldRequest) bool {
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

func writeError(c *gin.Context, err error) {
	var verr *lead.ValidationError
	switch {
	case errors.As(err, &verr):
		response.CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", verr.Fields)
	case errors.Is(err, ErrFieldNotFound):
		response.CustomError(c, http.StatusNotFound, "FIELD_NOT_FOUND", "Field not found")
	case errors.Is(err, ErrFieldExists):
		response.CustomError(c, http.StatusConflict, "FIELD_EXISTS", "Field name already exists")
	case errors.Is(err, ErrForbidden):
		response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
	default:
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
	}
}
