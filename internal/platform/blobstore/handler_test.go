package blobstore

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/voicescreen/voicescreen/internal/platform/apperr"
	"github.com/voicescreen/voicescreen/internal/platform/auth"
)

var testTasks = map[string]int{"reading": 120, "counting": 30}

type stubResolver struct {
	doctors map[string]string
}

func (s *stubResolver) DoctorForLink(_ context.Context, linkID string) (string, error) {
	id, ok := s.doctors[linkID]
	if !ok {
		return "", apperr.ErrNotFound
	}
	return id, nil
}

func multipartUpload(t *testing.T, fields map[string]string, fileName, contentType string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("creating part: %v", err)
	}
	part.Write(content)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recordings", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req, httptest.NewRecorder()
}

func TestUploadHandler_ViaLink(t *testing.T) {
	e := echo.New()
	resolver := &stubResolver{doctors: map[string]string{"lnk-1": "d1"}}
	h := NewHandler(NewInMemoryStore(), resolver, testTasks)

	req, rec := multipartUpload(t, map[string]string{
		"task":       "reading",
		"patient_id": "P1a2b-0001",
		"link_id":    "lnk-1",
	}, "reading.wav", "audio/wav", []byte("RIFF"))
	c := e.NewContext(req, rec)

	if err := h.Upload(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "recordings/d1/P1a2b-0001/reading") {
		t.Errorf("expected doctor-scoped key, got %s", rec.Body.String())
	}
}

func TestUploadHandler_UnknownTask(t *testing.T) {
	e := echo.New()
	h := NewHandler(NewInMemoryStore(), &stubResolver{}, testTasks)

	req, rec := multipartUpload(t, map[string]string{
		"task":       "humming",
		"patient_id": "P1a2b-0001",
		"link_id":    "lnk-1",
	}, "humming.wav", "audio/wav", []byte("RIFF"))
	c := e.NewContext(req, rec)

	err := h.Upload(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestUploadHandler_DeadLink(t *testing.T) {
	e := echo.New()
	h := NewHandler(NewInMemoryStore(), &stubResolver{}, testTasks)

	req, rec := multipartUpload(t, map[string]string{
		"task":       "reading",
		"patient_id": "P1a2b-0001",
		"link_id":    "lnk-dead",
	}, "reading.wav", "audio/wav", []byte("RIFF"))
	c := e.NewContext(req, rec)

	err := h.Upload(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestUploadHandler_NoLinkNoSession(t *testing.T) {
	e := echo.New()
	h := NewHandler(NewInMemoryStore(), &stubResolver{}, testTasks)

	req, rec := multipartUpload(t, map[string]string{
		"task":       "reading",
		"patient_id": "P1a2b-0001",
	}, "reading.wav", "audio/wav", []byte("RIFF"))
	c := e.NewContext(req, rec)

	err := h.Upload(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestUploadHandler_WrongContentType(t *testing.T) {
	e := echo.New()
	resolver := &stubResolver{doctors: map[string]string{"lnk-1": "d1"}}
	h := NewHandler(NewInMemoryStore(), resolver, testTasks)

	req, rec := multipartUpload(t, map[string]string{
		"task":       "reading",
		"patient_id": "P1a2b-0001",
		"link_id":    "lnk-1",
	}, "notes.pdf", "application/pdf", []byte("%PDF"))
	c := e.NewContext(req, rec)

	err := h.Upload(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %v", err)
	}
}

func TestDownloadHandler_ScopedToSessionDoctor(t *testing.T) {
	e := echo.New()
	store := NewInMemoryStore()
	store.Upload(context.Background(), RecordingMetadata{
		Task: "reading", DoctorID: "d1", PatientID: "P-0001",
		FileName: "reading.wav", ContentType: "audio/wav",
	}, strings.NewReader("RIFF"))
	h := NewHandler(store, &stubResolver{}, testTasks)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recordings/P-0001/reading", nil)
	ctx := auth.WithDoctor(req.Context(), "d1", "doctor")
	rec := httptest.NewRecorder()
	c := e.NewContext(req.WithContext(ctx), rec)
	c.SetParamNames("patientId", "task")
	c.SetParamValues("P-0001", "reading")

	if err := h.Download(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "RIFF" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}

	// Another doctor's session resolves to a different key and finds nothing.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/recordings/P-0001/reading", nil)
	ctx = auth.WithDoctor(req.Context(), "d2", "doctor")
	c = e.NewContext(req.WithContext(ctx), httptest.NewRecorder())
	c.SetParamNames("patientId", "task")
	c.SetParamValues("P-0001", "reading")

	err := h.Download(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign doctor, got %v", err)
	}
}

func TestMetadataHandler(t *testing.T) {
	e := echo.New()
	store := NewInMemoryStore()
	store.Upload(context.Background(), RecordingMetadata{
		Task: "counting", DoctorID: "d1", PatientID: "P-0001",
		FileName: "counting.wav", ContentType: "audio/wav",
	}, strings.NewReader("RIFF"))
	h := NewHandler(store, &stubResolver{}, testTasks)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recordings/P-0001/counting/metadata", nil)
	ctx := auth.WithDoctor(req.Context(), "d1", "doctor")
	rec := httptest.NewRecorder()
	c := e.NewContext(req.WithContext(ctx), rec)
	c.SetParamNames("patientId", "task")
	c.SetParamValues("P-0001", "counting")

	if err := h.Metadata(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"hash"`) {
		t.Errorf("expected metadata in response, got %s", rec.Body.String())
	}
}
