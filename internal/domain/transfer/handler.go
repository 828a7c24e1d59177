package transfer

import (
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"salescrm/internal/domain/lead"
	"salescrm/internal/domain/user"
	"salescrm/internal/pkg/response"
)

// Handler handles spreadsheet import and export
type Handler struct {
	service *Service
}

// NewHandler creates transfer handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Export handles GET /api/v1/export?type=all|signed
func (h *Handler) Export(c *gin.Context) {
	actor, ok := user.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	kind, err := ParseKind(c.Query("type"))
	if err != nil {
		writeError(c, err)
		return
	}

	f, err := h.service.Export(c.Request.Context(), actor, kind)
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", ContentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": kind.Filename()}))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

// Import handles POST /api/v1/import (multipart field "file")
func (h *Handler) Import(c *gin.Context) {
	actor, ok := user.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, ErrMissingFile)
		return
	}
	file, err := fh.Open()
	if err != nil {
		writeError(c, ErrMissingFile)
		return
	}
	defer file.Close()

	res, err := h.service.Import(c.Request.Context(), actor, file)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidKind):
		response.CustomError(c, http.StatusBadRequest, "INVALID_EXPORT_TYPE", err.Error())
	case errors.Is(err, ErrMissingFile):
		response.CustomError(c, http.StatusBadRequest, "FILE_REQUIRED", "Upload an xlsx file in the file field")
	case errors.Is(err, ErrInvalidWorkbook):
		response.CustomError(c, http.StatusBadRequest, "INVALID_WORKBOOK", "File is not a readable xlsx workbook")
	case errors.Is(err, lead.ErrForbidden):
		response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
	default:
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err)
	}
}
