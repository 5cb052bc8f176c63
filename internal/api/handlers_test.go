package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/reqmine/internal/mining"
)

type stubMiner struct {
	mineResult   *mining.MiningResult
	mineErr      error
	resumeResult *mining.MiningResult
	resumeErr    error
	sessionList  []string

	lastText      string
	lastSessionID string
	lastFeedback  mining.FeedbackPayload
}

func (s *stubMiner) MineRequirements(ctx context.Context, userInput string, mctx mining.Context) (*mining.MiningResult, error) {
	s.lastText = userInput
	return s.mineResult, s.mineErr
}

func (s *stubMiner) ResumeWorkflow(ctx context.Context, sessionID string, fb mining.FeedbackPayload) (*mining.MiningResult, error) {
	s.lastSessionID = sessionID
	s.lastFeedback = fb
	return s.resumeResult, s.resumeErr
}

func (s *stubMiner) Inspect(ctx context.Context, sessionID string) (*mining.MiningResult, error) {
	s.lastSessionID = sessionID
	return s.mineResult, s.mineErr
}

func (s *stubMiner) Sessions(ctx context.Context) ([]string, error) {
	return s.sessionList, nil
}

const testToken = "test-token"

func newTestHandler(svc Miner) http.Handler {
	return NewAppHandler(AppDeps{Service: svc, Token: testToken})
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth_NoAuthRequired(t *testing.T) {
	h := newTestHandler(&stubMiner{})

	rec := doRequest(t, h, http.MethodGet, "/health", nil, false)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMine_RequiresAuth(t *testing.T) {
	h := newTestHandler(&stubMiner{})

	rec := doRequest(t, h, http.MethodPost, "/v1/mine", MineRequest{Text: "hello"}, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMine(t *testing.T) {
	svc := &stubMiner{
		mineResult: &mining.MiningResult{
			SessionID:   "s1",
			DemandState: mining.DemandSmartCompliant,
			Status:      mining.StatusWaitingForFeedback,
		},
	}
	h := newTestHandler(svc)

	rec := doRequest(t, h, http.MethodPost, "/v1/mine", MineRequest{Text: "Analyze churn"}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.lastText != "Analyze churn" {
		t.Errorf("service received text %q", svc.lastText)
	}

	var result mining.MiningResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.SessionID != "s1" || result.Status != mining.StatusWaitingForFeedback {
		t.Errorf("result = %+v", result)
	}
}

func TestMine_EmptyInput(t *testing.T) {
	h := newTestHandler(&stubMiner{mineErr: mining.ErrEmptyInput})

	rec := doRequest(t, h, http.MethodPost, "/v1/mine", MineRequest{Text: "  "}, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMine_InvalidBody(t *testing.T) {
	h := newTestHandler(&stubMiner{})

	req := httptest.NewRequest(http.MethodPost, "/v1/mine", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestResume(t *testing.T) {
	svc := &stubMiner{
		resumeResult: &mining.MiningResult{SessionID: "s1", Status: mining.StatusCompleted},
	}
	h := newTestHandler(svc)

	fb := mining.FeedbackPayload{
		Type:         mining.FeedbackSimpleStrategy,
		Confirmation: true,
	}
	rec := doRequest(t, h, http.MethodPost, "/v1/sessions/s1/resume", fb, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.lastSessionID != "s1" {
		t.Errorf("session id = %q", svc.lastSessionID)
	}
	if svc.lastFeedback.Type != mining.FeedbackSimpleStrategy || !svc.lastFeedback.Confirmation {
		t.Errorf("feedback = %+v", svc.lastFeedback)
	}
}

func TestResume_UnknownSession(t *testing.T) {
	h := newTestHandler(&stubMiner{resumeErr: mining.ErrSessionNotFound})

	rec := doRequest(t, h, http.MethodPost, "/v1/sessions/nope/resume", mining.FeedbackPayload{}, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetSession(t *testing.T) {
	svc := &stubMiner{
		mineResult: &mining.MiningResult{SessionID: "s1", Status: mining.StatusWaitingForFeedback},
	}
	h := newTestHandler(svc)

	rec := doRequest(t, h, http.MethodGet, "/v1/sessions/s1", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.lastSessionID != "s1" {
		t.Errorf("session id = %q", svc.lastSessionID)
	}
}

func TestListSessions(t *testing.T) {
	svc := &stubMiner{sessionList: []string{"s2", "s1"}}
	h := newTestHandler(svc)

	rec := doRequest(t, h, http.MethodGet, "/v1/sessions", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var payload struct {
		Sessions []string `json:"sessions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Sessions) != 2 || payload.Sessions[0] != "s2" {
		t.Errorf("sessions = %v", payload.Sessions)
	}
}

func TestListSessions_Empty(t *testing.T) {
	h := newTestHandler(&stubMiner{})

	rec := doRequest(t, h, http.MethodGet, "/v1/sessions", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"sessions":[]`) {
		t.Errorf("body = %s, want empty array not null", rec.Body.String())
	}
}

func TestGetSession_NotFound(t *testing.T) {
	h := newTestHandler(&stubMiner{mineErr: mining.ErrSessionNotFound})

	rec := doRequest(t, h, http.MethodGet, "/v1/sessions/nope", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var payload struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.Error.Type != "not_found" {
		t.Errorf("error type = %q", payload.Error.Type)
	}
}
