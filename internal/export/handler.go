package export

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/imdcare/ward/internal/platform/auth"
	"github.com/imdcare/ward/internal/platform/blobstore"
	"github.com/imdcare/ward/internal/report"
)

const exportFailedMessage = "Failed to export report. Please try again."

type Handler struct {
	exp *Exporter
	src report.Source
	now func() time.Time
}

func NewHandler(exp *Exporter, src report.Source) *Handler {
	return &Handler{exp: exp, src: src, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole(auth.Staff...))
	g.GET("/export", h.Export)
	g.GET("/exports", h.ListExports)
	g.GET("/exports/:name", h.DownloadExport)
}

func attachment(c echo.Context, name string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
}

func (h *Handler) Export(c echo.Context) error {
	f, err := report.FilterFromRequest(c, h.now())
	if err != nil {
		return err
	}
	format, err := ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.exp.Export(c.Request().Context(), report.Aggregate(h.src.Dataset(), f), format)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, exportFailedMessage)
	}
	if res.Archived != nil {
		c.Response().Header().Set("X-Archive-Key", res.Archived.Key)
	}
	attachment(c, res.FileName)
	return c.Blob(http.StatusOK, res.ContentType, res.Data)
}

type archivedView struct {
	Name string `json:"name"`
	*blobstore.ObjectInfo
}

func (h *Handler) ListExports(c echo.Context) error {
	items, err := h.exp.Archived(c.Request().Context())
	if errors.Is(err, ErrArchiveDisabled) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]archivedView, 0, len(items))
	for _, it := range items {
		out = append(out, archivedView{Name: path.Base(it.Key), ObjectInfo: it})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  out,
		"total": len(out),
	})
}

func (h *Handler) DownloadExport(c echo.Context) error {
	name := c.Param("name")
	if !strings.HasPrefix(name, filePrefix) || strings.Contains(name, "/") {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid export name")
	}
	rc, info, err := h.exp.Open(c.Request().Context(), name)
	switch {
	case errors.Is(err, ErrArchiveDisabled), errors.Is(err, blobstore.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "export not found")
	case errors.Is(err, blobstore.ErrInvalidKey):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid export name")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer rc.Close()
	attachment(c, name)
	return c.Stream(http.StatusOK, info.ContentType, rc)
}
