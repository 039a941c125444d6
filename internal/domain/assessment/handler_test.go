package assessment

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/voicescreen/voicescreen/internal/platform/auth"
)

func newTestHandler() (*Handler, *mockRepo, *mockLinks) {
	repo := newMockRepo()
	links := newMockLinks()
	return NewHandler(NewService(repo, links)), repo, links
}

func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, doctorID uuid.UUID) echo.Context {
	ctx := auth.WithDoctor(req.Context(), doctorID.String(), "doctor")
	return e.NewContext(req.WithContext(ctx), rec)
}

const submitBody = `{
	"link_id": %q,
	"patient": {
		"name": "Jane Roe",
		"age": "34",
		"gender": "Female",
		"language": "English",
		"education": "Graduate",
		"email": "jane@example.com",
		"clinic": "Northside",
		"patient_id": "P1a2b-0001",
		"medication": "No"
	},
	"phq9_answers": [1,1,1,1,1,0,0,0,0],
	"gad7_answers": [0,1,0,1,0,1,0],
	"audio_files": {"reading": "recordings/d/p/reading.wav"}
}`

func TestSubmitHandler_ViaLink(t *testing.T) {
	e := echo.New()
	h, _, links := newTestHandler()
	linkID := links.add(uuid.New())

	body := strings.Replace(submitBody, "%q", `"`+linkID+`"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Submit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	// Quoted age coerces to an int.
	if !strings.Contains(rec.Body.String(), `"age":34`) {
		t.Errorf("expected coerced age in response, got %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"severity":"Mild"`) {
		t.Errorf("expected server-computed severity, got %s", rec.Body.String())
	}
}

func TestSubmitHandler_NoLinkNoSession(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler()

	body := strings.Replace(submitBody, "%q", `""`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Submit(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestSubmitHandler_AuthedWithoutLink(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler()
	doctorID := uuid.New()

	body := strings.Replace(submitBody, "%q", `""`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, doctorID)

	if err := h.Submit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestSubmitHandler_ValidationErrors(t *testing.T) {
	e := echo.New()
	h, _, links := newTestHandler()
	linkID := links.add(uuid.New())

	body := strings.Replace(submitBody, "%q", `"`+linkID+`"`, 1)
	body = strings.Replace(body, `"Jane Roe"`, `""`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Submit(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestGetHandler_OtherDoctorsRecordHidden(t *testing.T) {
	e := echo.New()
	h, repo, _ := newTestHandler()
	a := &Assessment{ID: uuid.New(), DoctorID: uuid.New()}
	repo.saved[a.ID] = a

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments/"+a.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, uuid.New())
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	err := h.Get(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another doctor's record, got %v", err)
	}
}

func TestListHandler_PaginatedEnvelope(t *testing.T) {
	e := echo.New()
	h, repo, _ := newTestHandler()
	doctorID := uuid.New()
	for i := 0; i < 5; i++ {
		a := &Assessment{ID: uuid.New(), DoctorID: doctorID}
		repo.saved[a.ID] = a
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments?limit=2&offset=0", nil)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, doctorID)

	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := rec.Body.String()
	// The envelope carries the unpaged total so clients can page.
	for _, want := range []string{`"total":5`, `"limit":2`, `"offset":0`, `"has_more":true`, `"data":[`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in response, got %s", want, body)
		}
	}
}

func TestListHandler_BadDateRange(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assessments?start=March&end=2025-03-10", nil)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, uuid.New())

	err := h.List(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestNextPatientIDHandler(t *testing.T) {
	e := echo.New()
	h, _, _ := newTestHandler()
	doctorID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/next-id", nil)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, doctorID)

	if err := h.NextPatientID(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "P"+doctorID.String()[:4]+"-0001") {
		t.Errorf("expected first patient id in response, got %s", rec.Body.String())
	}
}
