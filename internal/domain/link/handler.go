package link

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/voicescreen/voicescreen/internal/platform/apperr"
	"github.com/voicescreen/voicescreen/internal/platform/auth"
	"github.com/voicescreen/voicescreen/internal/platform/qr"
)

type Handler struct {
	svc           *Service
	qr            qr.Encoder
	baseURL       string
	defaultExpiry int
}

// NewHandler builds the link handler. defaultExpiryDays applies when the
// create request does not name an expiry; values <= 0 fall back to
// DefaultExpiryDays.
func NewHandler(svc *Service, encoder qr.Encoder, baseURL string, defaultExpiryDays int) *Handler {
	if defaultExpiryDays <= 0 {
		defaultExpiryDays = DefaultExpiryDays
	}
	return &Handler{svc: svc, qr: encoder, baseURL: baseURL, defaultExpiry: defaultExpiryDays}
}

// RegisterRoutes mounts link routes. The validation endpoint is public so an
// unauthenticated patient can open a shared link; everything else requires a
// clinician session.
func (h *Handler) RegisterRoutes(public, authed *echo.Group) {
	public.GET("/links/:id", h.ValidateLink)

	authed.POST("/links", h.CreateLink)
	authed.GET("/links", h.ListLinks)
	authed.GET("/links/:id/qr", h.LinkQR)
}

type createLinkRequest struct {
	ExpiryDays   *int    `json:"expiry_days,omitempty"`
	PatientEmail *string `json:"patient_email,omitempty"`
	PatientName  *string `json:"patient_name,omitempty"`
}

type createLinkResponse struct {
	*AssessmentLink
	URL string `json:"url"`
}

func (h *Handler) CreateLink(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.DoctorIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}

	var req createLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	expiryDays := h.defaultExpiry
	if req.ExpiryDays != nil {
		expiryDays = *req.ExpiryDays
	}

	l, err := h.svc.Create(c.Request().Context(), doctorID, expiryDays, req.PatientEmail, req.PatientName)
	if err != nil {
		var verr *apperr.ValidationError
		if errors.As(err, &verr) {
			return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, createLinkResponse{AssessmentLink: l, URL: h.svc.URL(h.baseURL, l.LinkID)})
}

func (h *Handler) ValidateLink(c echo.Context) error {
	l, err := h.svc.Validate(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "link not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ListLinks(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.DoctorIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	links, err := h.svc.ListByDoctor(c.Request().Context(), doctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if links == nil {
		links = []*AssessmentLink{}
	}
	return c.JSON(http.StatusOK, links)
}

func (h *Handler) LinkQR(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.DoctorIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}

	linkID := c.Param("id")
	l, err := h.svc.Validate(c.Request().Context(), linkID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "link not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if l.DoctorID != doctorID {
		// A clinician can only render QR codes for their own links.
		return echo.NewHTTPError(http.StatusNotFound, "link not found")
	}

	uri, err := h.qr.DataURI(h.svc.URL(h.baseURL, linkID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"link_id": linkID, "qr_code": uri})
}
