package assessment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/voicescreen/voicescreen/internal/platform/apperr"
	"github.com/voicescreen/voicescreen/internal/platform/auth"
	"github.com/voicescreen/voicescreen/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts assessment routes. Submission sits on the public
// group behind optionalAuth so it serves both link-bearing patients and
// authenticated clinicians.
func (h *Handler) RegisterRoutes(public, authed *echo.Group, optionalAuth echo.MiddlewareFunc) {
	public.POST("/assessments", h.Submit, optionalAuth)

	authed.GET("/assessments", h.List)
	authed.GET("/assessments/:id", h.Get)
	authed.GET("/patients/next-id", h.NextPatientID)
	authed.GET("/patients/:patientId/assessments", h.ListByPatient)
}

// flexInt accepts both 42 and "42"; the intake form posts ages as strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type patientPayload struct {
	Name       string  `json:"name"`
	Age        flexInt `json:"age"`
	Gender     string  `json:"gender"`
	Language   string  `json:"language"`
	Education  string  `json:"education"`
	Email      string  `json:"email"`
	Clinic     string  `json:"clinic"`
	PatientID  string  `json:"patient_id"`
	Medication string  `json:"medication"`
}

type submitRequest struct {
	LinkID      string            `json:"link_id,omitempty"`
	Patient     patientPayload    `json:"patient"`
	PHQ9Answers []int             `json:"phq9_answers"`
	GAD7Answers []int             `json:"gad7_answers"`
	AudioFiles  map[string]string `json:"audio_files"`
}

func (h *Handler) Submit(c echo.Context) error {
	var req submitRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var doctorID uuid.UUID
	if req.LinkID == "" {
		id, err := uuid.Parse(auth.DoctorIDFromContext(c.Request().Context()))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "link or clinician session required")
		}
		doctorID = id
	}

	a, err := h.svc.Submit(c.Request().Context(), SubmitRequest{
		LinkID:   req.LinkID,
		DoctorID: doctorID,
		Patient: PatientInfo{
			Name:       req.Patient.Name,
			Age:        int(req.Patient.Age),
			Gender:     Gender(req.Patient.Gender),
			Language:   req.Patient.Language,
			Education:  req.Patient.Education,
			Email:      req.Patient.Email,
			Clinic:     req.Patient.Clinic,
			PatientID:  req.Patient.PatientID,
			Medication: Medication(req.Patient.Medication),
		},
		PHQ9Answers: req.PHQ9Answers,
		GAD7Answers: req.GAD7Answers,
		AudioFiles:  req.AudioFiles,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) List(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.DoctorIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}

	startStr, endStr := c.QueryParam("start"), c.QueryParam("end")
	if startStr != "" || endStr != "" {
		start, end, perr := parseDateRange(startStr, endStr)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, perr.Error())
		}
		out, err := h.svc.ByDateRange(c.Request().Context(), start, end, &doctorID)
		if err != nil {
			return mapError(err)
		}
		if out == nil {
			out = []*Assessment{}
		}
		// A date-range query is a complete report, not a page.
		return c.JSON(http.StatusOK, pagination.NewResponse(out, len(out), len(out), 0))
	}

	p := pagination.FromContext(c)
	out, total, err := h.svc.ByDoctor(c.Request().Context(), doctorID, p.Limit, p.Offset)
	if err != nil {
		return mapError(err)
	}
	if out == nil {
		out = []*Assessment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(out, total, p.Limit, p.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.DoctorIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid assessment id")
	}

	a, err := h.svc.ByID(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	if a.DoctorID != doctorID {
		return echo.NewHTTPError(http.StatusNotFound, "assessment not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	if auth.DoctorIDFromContext(c.Request().Context()) == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	p := pagination.FromContext(c)
	out, total, err := h.svc.ByPatient(c.Request().Context(), c.Param("patientId"), p.Limit, p.Offset)
	if err != nil {
		return mapError(err)
	}
	if out == nil {
		out = []*Assessment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(out, total, p.Limit, p.Offset))
}

func (h *Handler) NextPatientID(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.DoctorIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}
	id, err := h.svc.NextPatientID(c.Request().Context(), doctorID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"patient_id": id})
}

// parseDateRange turns inclusive calendar-day bounds into a half-open
// timestamp range.
func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start: expected YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end: expected YYYY-MM-DD")
	}
	return start, end.AddDate(0, 0, 1), nil
}

func mapError(err error) error {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
