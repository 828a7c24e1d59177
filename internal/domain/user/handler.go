package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"salescrm/internal/pkg/response"
	"salescrm/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", errs)
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.CustomError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
		case errors.Is(err, ErrUserInactive):
			response.CustomError(c, http.StatusForbidden, "USER_INACTIVE", "Account is disabled")
		default:
			response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
		}
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Me handles GET /api/v1/auth/me
func (h *Handler) Me(c *gin.Context) {
	actor, ok := ActorFrom(c)
	if !ok {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	u, err := h.service.Me(c.Request.Context(), actor)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u)
}

// ListStaff handles GET /api/v1/users/staff
func (h *Handler) ListStaff(c *gin.Context) {
	staff, err := h.service.ListStaff(c.Request.Context())
	if err != nil {
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
		return
	}
	response.Success(c, http.StatusOK, staff)
}

// ListUsers handles GET /api/v1/settings/users
func (h *Handler) ListUsers(c *gin.Context) {
	actor, _ := ActorFrom(c)
	users, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// CreateUser handles POST /api/v1/settings/users
func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", errs)
		return
	}

	actor, _ := ActorFrom(c)
	u, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, u)
}

// DeleteUser handles DELETE /api/v1/settings/users/:id
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	actor, _ := ActorFrom(c)
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "User deleted"})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		response.CustomError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, ErrForbidden):
		response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
	case errors.Is(err, ErrCannotDeleteSelf):
		response.CustomError(c, http.StatusBadRequest, "CANNOT_DELETE_SELF", "You cannot delete your own account")
	case errors.Is(err, ErrUsernameExists):
		response.CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", map[string]string{"username": "exists"})
	default:
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
	}
}
