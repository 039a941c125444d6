package blobstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/voicescreen/voicescreen/internal/platform/apperr"
	"github.com/voicescreen/voicescreen/internal/platform/auth"
)

// LinkResolver resolves a single-use link to the clinician who issued it.
// Uploads never consume the link; consumption happens when the assessment
// itself is submitted.
type LinkResolver interface {
	DoctorForLink(ctx context.Context, linkID string) (string, error)
}

// Handler serves recording upload and retrieval. tasks is the set of
// accepted task names.
type Handler struct {
	store Store
	links LinkResolver
	tasks map[string]int
}

func NewHandler(store Store, links LinkResolver, tasks map[string]int) *Handler {
	return &Handler{store: store, links: links, tasks: tasks}
}

// RegisterRoutes mounts recording routes. Upload sits on the public group
// behind optionalAuth so link-bearing patients can record before submitting.
func (h *Handler) RegisterRoutes(public, authed *echo.Group, optionalAuth echo.MiddlewareFunc) {
	public.POST("/recordings", h.Upload, optionalAuth)

	authed.GET("/recordings/:patientId/:task", h.Download)
	authed.GET("/recordings/:patientId/:task/metadata", h.Metadata)
	authed.DELETE("/recordings/:patientId/:task", h.Delete)
	authed.GET("/patients/:patientId/recordings", h.ListByPatient)
}

func (h *Handler) Upload(c echo.Context) error {
	task := c.FormValue("task")
	if _, ok := h.tasks[task]; !ok {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown task %q", task))
	}
	patientID := c.FormValue("patient_id")
	if patientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}

	doctorID := auth.DoctorIDFromContext(c.Request().Context())
	if linkID := c.FormValue("link_id"); linkID != "" {
		id, err := h.links.DoctorForLink(c.Request().Context(), linkID)
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "link not found")
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		doctorID = id
	}
	if doctorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "link or clinician session required")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file")
	}
	defer src.Close()

	meta := RecordingMetadata{
		Task:        task,
		DoctorID:    doctorID,
		PatientID:   patientID,
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
	}
	result, err := h.store.Upload(c.Request().Context(), meta, src)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge):
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, ErrInvalidContentType):
			return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
		default:
			uerr := apperr.Upload(task, err)
			return echo.NewHTTPError(http.StatusInternalServerError, uerr.Error())
		}
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) Download(c echo.Context) error {
	doctorID := auth.DoctorIDFromContext(c.Request().Context())
	if doctorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}

	key := ObjectKey(doctorID, c.Param("patientId"), c.Param("task"))
	rc, meta, err := h.store.Download(c.Request().Context(), key)
	if err != nil {
		return mapStoreError(err)
	}
	defer rc.Close()

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, meta.FileName))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}

func (h *Handler) Metadata(c echo.Context) error {
	doctorID := auth.DoctorIDFromContext(c.Request().Context())
	if doctorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}

	meta, err := h.store.GetMetadata(c.Request().Context(), ObjectKey(doctorID, c.Param("patientId"), c.Param("task")))
	if err != nil {
		return mapStoreError(err)
	}
	return c.JSON(http.StatusOK, meta)
}

func (h *Handler) Delete(c echo.Context) error {
	doctorID := auth.DoctorIDFromContext(c.Request().Context())
	if doctorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}

	if err := h.store.Delete(c.Request().Context(), ObjectKey(doctorID, c.Param("patientId"), c.Param("task"))); err != nil {
		return mapStoreError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	doctorID := auth.DoctorIDFromContext(c.Request().Context())
	if doctorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
	}

	items, err := h.store.ListByPatient(c.Request().Context(), doctorID, c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*RecordingMetadata{}
	}
	return c.JSON(http.StatusOK, items)
}

func mapStoreError(err error) error {
	if errors.Is(err, ErrRecordingNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "recording not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
