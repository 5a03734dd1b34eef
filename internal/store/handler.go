package store

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/imdcare/ward/internal/platform/auth"
	"github.com/imdcare/ward/internal/report"
)

type Handler struct {
	stores *Stores
}

func NewHandler(s *Stores) *Handler {
	return &Handler{stores: s}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireRole(auth.Staff...))
	staff.GET("/dashboard", h.GetDashboard)
	staff.POST("/dashboard/refresh", h.Refresh)
	staff.GET("/dashboard/stats", h.GetStats)
	staff.GET("/specialties", h.ListSpecialties)
	staff.GET("/specialties/:name", h.GetSpecialty)
}

func (h *Handler) GetDashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"stores": h.stores.Statuses(),
		"stats":  report.DashboardStats(h.stores.Dataset(), h.stores.now()),
	})
}

// Refresh reloads every store. Failures are reported per store in the
// response rather than as an HTTP error.
func (h *Handler) Refresh(c echo.Context) error {
	_ = h.stores.Refresh(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"stores": h.stores.Statuses(),
	})
}

func (h *Handler) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, report.DashboardStats(h.stores.Dataset(), h.stores.now()))
}

func (h *Handler) ListSpecialties(c echo.Context) error {
	boards := report.Boards(h.stores.Dataset())
	type row struct {
		Specialty     string `json:"specialty"`
		Patients      int    `json:"patients"`
		Consultations int    `json:"consultations"`
	}
	out := make([]row, 0, len(boards))
	for _, b := range boards {
		out = append(out, row{Specialty: b.Specialty, Patients: len(b.Patients), Consultations: len(b.Consultations)})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": out})
}

func (h *Handler) GetSpecialty(c echo.Context) error {
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil || !report.IsSpecialty(name) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown specialty")
	}
	return c.JSON(http.StatusOK, report.Board(h.stores.Dataset(), name))
}
