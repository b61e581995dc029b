package referral

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medunion/medunion/internal/platform/auth"
	"github.com/medunion/medunion/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("doctor", "nurse", "patient"))
	readGroup.GET("/referrals", h.List)
	readGroup.GET("/referrals/:id", h.Get)
	readGroup.GET("/referrals/:id/export", h.Export)

	writeGroup := api.Group("", auth.RequireRole("doctor", "nurse"))
	writeGroup.POST("/referrals", h.Create)
	writeGroup.PATCH("/referrals/:id/status", h.UpdateStatus)
	writeGroup.POST("/referrals/:id/report", h.AttachReport)
	writeGroup.POST("/referrals/:id/instruction", h.RecordInstruction)
	writeGroup.POST("/referrals/:id/follow-ups", h.RecordFollowUp)
}

// httpError maps domain errors onto HTTP statuses: unknown id is 404 and a
// transition the status graph forbids is 409.
func httpError(err error) error {
	var invalid *InvalidTransitionError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "referral not found")
	case errors.As(err, &invalid):
		return echo.NewHTTPError(http.StatusConflict, invalid.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) Create(c echo.Context) error {
	var payload CreatePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok && payload.CreatedBy == "" {
		payload.CreatedBy = viewer.ID
	}
	r, err := h.svc.Create(c.Request().Context(), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Get(c echo.Context) error {
	r, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	q := Query{
		Search:       c.QueryParam("q"),
		Status:       Status(c.QueryParam("status")),
		Direction:    Direction(c.QueryParam("direction")),
		TransferType: TransferType(c.QueryParam("transferType")),
		PatientID:    c.QueryParam("patientId"),
		Limit:        pg.Limit,
		Offset:       pg.Offset,
	}
	items, total := h.svc.List(c.Request().Context(), q)
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type updateStatusRequest struct {
	Status Status `json:"status"`
	Note   string `json:"note,omitempty"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	handledBy := ""
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok {
		handledBy = viewer.ID
	}
	r, err := h.svc.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status, req.Note, handledBy)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) AttachReport(c echo.Context) error {
	var report TreatmentReport
	if err := c.Bind(&report); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok && report.Doctor == "" {
		report.Doctor = viewer.ID
	}
	r, err := h.svc.AttachTreatmentReport(c.Request().Context(), c.Param("id"), report)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

type instructionRequest struct {
	Instruction string `json:"instruction"`
}

func (h *Handler) RecordInstruction(c echo.Context) error {
	var req instructionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	by := ""
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok {
		by = viewer.ID
	}
	r, err := h.svc.RecordPatientInstruction(c.Request().Context(), c.Param("id"), req.Instruction, by)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) RecordFollowUp(c echo.Context) error {
	var fu FollowUp
	if err := c.Bind(&fu); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok && fu.By == "" {
		fu.By = viewer.ID
	}
	r, err := h.svc.RecordFollowUp(c.Request().Context(), c.Param("id"), fu)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Export(c echo.Context) error {
	text, err := h.svc.Export(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}
