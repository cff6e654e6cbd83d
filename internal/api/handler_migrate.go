package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tsanders-rh/analyticsctl/internal/migrate"
)

// Exporter produces a full snapshot of both stores
type Exporter interface {
	ExportAll(ctx context.Context) (*migrate.Snapshot, error)
}

// Importer writes a snapshot into both stores
type Importer interface {
	ImportAll(ctx context.Context, snap *migrate.Snapshot) (*migrate.Result, error)
}

// MigrateHandler handles cross-deployment migration endpoints
type MigrateHandler struct {
	exporter Exporter
	importer Importer
}

// NewMigrateHandler creates a new migration handler
func NewMigrateHandler(exporter Exporter, importer Importer) *MigrateHandler {
	return &MigrateHandler{
		exporter: exporter,
		importer: importer,
	}
}

// ImportResponse is the envelope returned by POST /migrate/import.
// Success is true even when rows failed; the tally carries the detail.
type ImportResponse struct {
	Success bool            `json:"success"`
	Results *migrate.Result `json:"results"`
	Message string          `json:"message"`
}

// Export handles GET /migrate/export
func (h *MigrateHandler) Export(c echo.Context) error {
	ctx := c.Request().Context()

	format := c.QueryParam("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		return ErrorBadRequest(c, "format must be json or csv")
	}

	snap, err := h.exporter.ExportAll(ctx)
	if err != nil {
		return ErrorInternal(c, "Failed to export data: "+err.Error())
	}

	// format only affects the download framing; rows are serialized as
	// JSON either way
	filename := fmt.Sprintf("analytics-export-%s.%s", uuid.New().String(), format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	return c.JSON(http.StatusOK, snap)
}

// Import handles POST /migrate/import
func (h *MigrateHandler) Import(c echo.Context) error {
	ctx := c.Request().Context()

	var snap migrate.Snapshot
	if err := c.Bind(&snap); err != nil {
		return ErrorBadRequest(c, "Invalid request body")
	}

	results, err := h.importer.ImportAll(ctx, &snap)
	if err != nil {
		if errors.Is(err, migrate.ErrInvalidSnapshot) || errors.Is(err, migrate.ErrUnsupportedVersion) {
			return ErrorBadRequest(c, err.Error())
		}
		return ErrorInternal(c, "Failed to import data: "+err.Error())
	}

	return SuccessOK(c, &ImportResponse{
		Success: true,
		Results: results,
		Message: "Data imported successfully",
	})
}
