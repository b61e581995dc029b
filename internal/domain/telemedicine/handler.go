package telemedicine

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
	readGroup.GET("/telemedicine", h.List)
	readGroup.GET("/telemedicine/:id", h.Get)

	// Patients confirm their own attendance and rate the consult.
	patientGroup := api.Group("", auth.RequireRole("doctor", "nurse", "patient"))
	patientGroup.POST("/telemedicine/:id/confirm", h.ConfirmAttendance)
	patientGroup.POST("/telemedicine/:id/feedback", h.SubmitFeedback)

	clinicalGroup := api.Group("", auth.RequireRole("doctor", "nurse"))
	clinicalGroup.POST("/telemedicine", h.Create)
	clinicalGroup.POST("/telemedicine/:id/session", h.StartSession)
	clinicalGroup.POST("/telemedicine/:id/report", h.SubmitReport)

	adminGroup := api.Group("", auth.RequireRole())
	adminGroup.POST("/telemedicine/:id/review", h.BeginReview)
	adminGroup.POST("/telemedicine/:id/assign", h.Assign)
	adminGroup.POST("/telemedicine/:id/close", h.Close)
	adminGroup.POST("/telemedicine/:id/reject", h.Reject)
}

// httpError maps domain errors onto HTTP statuses: unknown id is 404 and an
// operation the lifecycle forbids is 409.
func httpError(err error) error {
	var invalid *InvalidStageError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "telemedicine case not found")
	case errors.As(err, &invalid):
		return echo.NewHTTPError(http.StatusConflict, invalid.Error())
	case errors.Is(err, ErrNoSchedule), errors.Is(err, ErrPatientMismatch):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) Create(c echo.Context) error {
	var payload CreatePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok && payload.AppliedBy == "" {
		payload.AppliedBy = viewer.Name
	}
	kase, err := h.svc.Create(c.Request().Context(), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, kase)
}

func (h *Handler) Get(c echo.Context) error {
	kase, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, kase)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	filters := Filters{
		Status:      CoarseStatus(c.QueryParam("status")),
		Stage:       Stage(c.QueryParam("stage")),
		ServiceType: ServiceType(c.QueryParam("serviceType")),
		PatientID:   c.QueryParam("patientId"),
		DoctorID:    c.QueryParam("doctorId"),
		Search:      c.QueryParam("q"),
	}
	items := h.svc.List(c.Request().Context(), filters)
	total := len(items)
	start, end := pg.Bounds(total)
	return c.JSON(http.StatusOK, pagination.NewResponse(items[start:end], total, pg.Limit, pg.Offset))
}

type reviewRequest struct {
	Reviewer string `json:"reviewer,omitempty"`
}

func (h *Handler) BeginReview(c echo.Context) error {
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok && req.Reviewer == "" {
		req.Reviewer = viewer.Name
	}
	kase, err := h.svc.BeginReview(c.Request().Context(), c.Param("id"), req.Reviewer)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, kase)
}

func (h *Handler) Assign(c echo.Context) error {
	var payload AssignPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok && payload.AssignedBy == "" {
		payload.AssignedBy = viewer.Name
	}
	kase, err := h.svc.Assign(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, kase)
}

func (h *Handler) ConfirmAttendance(c echo.Context) error {
	var payload ConfirmPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok && payload.PatientID == "" {
		payload.PatientID = viewer.ParticipantID
	}
	kase, err := h.svc.ConfirmAttendance(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, kase)
}

func (h *Handler) StartSession(c echo.Context) error {
	var payload StartSessionPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok && payload.StartedBy == "" {
		payload.StartedBy = viewer.Name
	}
	kase, err := h.svc.StartSession(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, kase)
}

func (h *Handler) SubmitReport(c echo.Context) error {
	var payload ReportPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok && payload.SubmittedBy == "" {
		payload.SubmittedBy = viewer.Name
	}
	kase, err := h.svc.SubmitReport(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, kase)
}

func (h *Handler) SubmitFeedback(c echo.Context) error {
	var payload FeedbackPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok && payload.SubmittedBy == "" {
		payload.SubmittedBy = viewer.Name
	}
	kase, err := h.svc.SubmitFeedback(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, kase)
}

func (h *Handler) Close(c echo.Context) error {
	var payload ClosePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok && payload.ClosedBy == "" {
		payload.ClosedBy = viewer.Name
	}
	kase, err := h.svc.Close(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, kase)
}

func (h *Handler) Reject(c echo.Context) error {
	var payload RejectPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok && payload.RejectedBy == "" {
		payload.RejectedBy = viewer.Name
	}
	kase, err := h.svc.Reject(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, kase)
}
