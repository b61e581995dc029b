package teaching

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medunion/medunion/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("doctor", "nurse", "patient"))
	readGroup.GET("/lectures", h.List)
	readGroup.GET("/lectures/:id", h.Detail)

	organizerGroup := api.Group("", auth.RequireRole("doctor"))
	organizerGroup.POST("/lectures", h.Create)
	organizerGroup.POST("/lectures/:id/materials", h.UploadMaterial)

	// Review and lifecycle operations are run by the union's coordinators.
	adminGroup := api.Group("", auth.RequireRole())
	adminGroup.POST("/lectures/:id/review", h.Review)
	adminGroup.POST("/lectures/:id/notice", h.PublishNotice)
	adminGroup.POST("/lectures/:id/close-enrollment", h.CloseEnrollment)
	adminGroup.POST("/lectures/:id/live", h.MarkLive)
	adminGroup.POST("/lectures/:id/verifications", h.RecordVerification)
	adminGroup.POST("/lectures/:id/report", h.CompileReport)
	adminGroup.POST("/lectures/:id/archive", h.Archive)
}

// viewerFrom converts the authenticated caller into the lecture viewer
// context used for visibility decisions.
func viewerFrom(c echo.Context) *Viewer {
	v, ok := auth.ViewerFromContext(c.Request().Context())
	if !ok {
		return nil
	}
	return &Viewer{
		Role:          v.Role,
		UserID:        v.ID,
		Organization:  v.Organization,
		ParticipantID: v.ParticipantID,
	}
}

// httpError maps domain errors onto HTTP statuses. Access denials surface as
// 404 so the response does not reveal the lecture exists.
func httpError(err error) error {
	var invalid *InvalidStageError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAccessDenied):
		return echo.NewHTTPError(http.StatusNotFound, "lecture not found")
	case errors.As(err, &invalid):
		return echo.NewHTTPError(http.StatusConflict, invalid.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) List(c echo.Context) error {
	filters := Filters{
		Stage:         Stage(c.QueryParam("stage")),
		Status:        CoarseStatus(c.QueryParam("status")),
		OrganizerID:   c.QueryParam("organizerId"),
		ParticipantID: c.QueryParam("participantId"),
		Visibility:    Visibility(c.QueryParam("visibility")),
		Search:        c.QueryParam("q"),
		Viewer:        viewerFrom(c),
	}
	lectures := h.svc.List(c.Request().Context(), filters)
	return c.JSON(http.StatusOK, lectures)
}

func (h *Handler) Detail(c echo.Context) error {
	lecture, err := h.svc.Detail(c.Request().Context(), c.Param("id"), viewerFrom(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lecture)
}

func (h *Handler) Create(c echo.Context) error {
	var payload CreatePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if viewer, ok := auth.ViewerFromContext(c.Request().Context()); ok {
		if payload.OrganizerID == "" {
			payload.OrganizerID = viewer.ID
			payload.OrganizerName = viewer.Name
		}
		if payload.OrganizerHospital == "" {
			payload.OrganizerHospital = viewer.Organization
		}
	}
	lecture, err := h.svc.Create(c.Request().Context(), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, lecture)
}

func (h *Handler) Review(c echo.Context) error {
	var payload ReviewPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if payload.Decision != "approved" && payload.Decision != "rejected" {
		return echo.NewHTTPError(http.StatusBadRequest, "decision must be approved or rejected")
	}
	lecture, err := h.svc.Review(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lecture)
}

func (h *Handler) PublishNotice(c echo.Context) error {
	var payload PublishNoticePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lecture, err := h.svc.PublishNotice(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lecture)
}

func (h *Handler) CloseEnrollment(c echo.Context) error {
	var payload CloseEnrollmentPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lecture, err := h.svc.CloseEnrollment(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lecture)
}

func (h *Handler) MarkLive(c echo.Context) error {
	var payload MarkLivePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lecture, err := h.svc.MarkLive(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lecture)
}

func (h *Handler) RecordVerification(c echo.Context) error {
	var payload VerificationPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lecture, err := h.svc.RecordVerification(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lecture)
}

func (h *Handler) UploadMaterial(c echo.Context) error {
	var payload UploadMaterialPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lecture, err := h.svc.UploadMaterial(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lecture)
}

func (h *Handler) CompileReport(c echo.Context) error {
	var payload CompileReportPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lecture, err := h.svc.CompileReport(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lecture)
}

type archiveRequest struct {
	Actor string `json:"actor,omitempty"`
}

func (h *Handler) Archive(c echo.Context) error {
	var req archiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lecture, err := h.svc.Archive(c.Request().Context(), c.Param("id"), req.Actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lecture)
}
