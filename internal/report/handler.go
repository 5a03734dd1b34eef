package report

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/imdcare/ward/internal/platform/auth"
)

// Source supplies the current snapshot of the ward stores.
type Source interface {
	Dataset() Dataset
}

type Handler struct {
	src Source
	now func() time.Time
}

func NewHandler(src Source) *Handler {
	return &Handler{src: src, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole(auth.Staff...))
	g.GET("", h.GetReport)
	g.GET("/trends", h.GetTrends)
	g.GET("/safety", h.GetSafety)
}

// FilterFromRequest reads start, end, specialty and tab query parameters.
func FilterFromRequest(c echo.Context, now time.Time) (Filter, error) {
	f, err := ParseFilter(c.QueryParam("start"), c.QueryParam("end"),
		c.QueryParam("specialty"), c.QueryParam("tab"), now)
	if err != nil {
		return Filter{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return f, nil
}

type filterView struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Specialty string `json:"specialty"`
	Tab       Tab    `json:"tab"`
}

func viewOf(f Filter) filterView {
	return filterView{
		Start:     dayKey(f.Range.Start),
		End:       dayKey(f.Range.End),
		Specialty: f.Specialty,
		Tab:       f.Tab,
	}
}

func (h *Handler) GetReport(c echo.Context) error {
	f, err := FilterFromRequest(c, h.now())
	if err != nil {
		return err
	}
	res := Aggregate(h.src.Dataset(), f)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"filter":        viewOf(f),
		"counts":        res.Counts(),
		"admissions":    res.Admissions,
		"consultations": res.Consultations,
		"appointments":  res.Appointments,
	})
}

func (h *Handler) GetTrends(c echo.Context) error {
	f, err := FilterFromRequest(c, h.now())
	if err != nil {
		return err
	}
	t := AdmissionTrends(h.src.Dataset().Patients, f.Range)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"filter": viewOf(f),
		"points": t.Points,
		"totals": t.Totals,
	})
}

func (h *Handler) GetSafety(c echo.Context) error {
	f, err := FilterFromRequest(c, h.now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"filter": viewOf(f),
		"safety": Safety(h.src.Dataset().Patients, f.Range),
	})
}

