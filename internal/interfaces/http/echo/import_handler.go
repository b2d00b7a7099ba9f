package echo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/jobposting-import/internal/application/jobimport"
	domain "github.com/mohammadpnp/jobposting-import/internal/domain/jobimport"
	"github.com/rs/zerolog"
)

// HeaderUserID identifies the uploader. Authentication happens upstream.
const HeaderUserID = "X-User-ID"

type ImportController interface {
	Create(ctx context.Context, in app.CreateImportInput) (*domain.ImportJob, error)
	Get(ctx context.Context, jobID string) (*domain.ImportJob, error)
	Cancel(ctx context.Context, jobID string) (*domain.ImportJob, error)
	Retry(ctx context.Context, jobID string) (*domain.ImportJob, error)
	Delete(ctx context.Context, jobID string, cascade bool) (app.DeleteResult, error)
	Template(format string) (app.TemplateFile, error)
}

type ImportHandler struct {
	controller ImportController
	logger     zerolog.Logger
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func NewImportHandler(controller ImportController, logger zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		controller: controller,
		logger:     logger.With().Str("component", "import_handler").Logger(),
	}
}

func (h *ImportHandler) Create(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "missing_file", "multipart field file is required")
	}

	var cfg domain.ImportConfig
	if raw := strings.TrimSpace(c.FormValue("config")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return badRequest(c, "invalid_config", "config must be a JSON import config")
		}
	}

	var scheduledAt *time.Time
	if raw := strings.TrimSpace(c.FormValue("scheduledAt")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(c, "invalid_schedule", "scheduledAt must be an RFC3339 timestamp")
		}
		scheduledAt = &parsed
	}

	var companyID *string
	if raw := strings.TrimSpace(c.FormValue("companyId")); raw != "" {
		companyID = &raw
	}

	file, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "invalid_file", "uploaded file could not be read")
	}
	defer file.Close()

	job, err := h.controller.Create(c.Request().Context(), app.CreateImportInput{
		UploaderID:  c.Request().Header.Get(HeaderUserID),
		CompanyID:   companyID,
		ImportType:  c.FormValue("importType"),
		FileName:    fileHeader.Filename,
		File:        file,
		ScheduledAt: scheduledAt,
		Config:      cfg,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, apiResponse{Data: job})
}

func (h *ImportHandler) Get(c echo.Context) error {
	job, err := h.controller.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: job})
}

func (h *ImportHandler) Cancel(c echo.Context) error {
	job, err := h.controller.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: job})
}

func (h *ImportHandler) Retry(c echo.Context) error {
	job, err := h.controller.Retry(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, apiResponse{Data: job})
}

func (h *ImportHandler) Delete(c echo.Context) error {
	cascade := false
	if raw := c.QueryParam("cascade"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "invalid_cascade", "cascade must be a boolean")
		}
		cascade = parsed
	}

	result, err := h.controller.Delete(c.Request().Context(), c.Param("id"), cascade)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: result})
}

func (h *ImportHandler) Template(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = "csv"
	}

	tmpl, err := h.controller.Template(format)
	if err != nil {
		return h.writeError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", tmpl.Name))
	return c.Blob(http.StatusOK, tmpl.ContentType, tmpl.Content)
}

func (h *ImportHandler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, app.ErrInvalidImportRequest),
		errors.Is(err, app.ErrInvalidImportConfig),
		errors.Is(err, app.ErrUnsupportedTemplateFormat),
		errors.Is(err, domain.ErrUnsupportedFormat):
		return badRequest(c, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrImportJobNotFound):
		return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
			Code:    "not_found",
			Message: "import job not found",
		}})
	case errors.Is(err, domain.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, apiResponse{Error: &errorBody{
			Code:    "invalid_transition",
			Message: err.Error(),
		}})
	}

	h.logger.Error().Err(err).Str("path", c.Path()).Msg("import request failed")
	return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
		Code:    "internal_error",
		Message: "import request failed",
	}})
}

func badRequest(c echo.Context, code, message string) error {
	return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
		Code:    code,
		Message: message,
	}})
}
