package server_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/journey-copilot/journey-copilot/internal/llm"
	"github.com/journey-copilot/journey-copilot/internal/server"
	"github.com/journey-copilot/journey-copilot/internal/testutil"
)

func generate(t *testing.T, srv *server.Server, id, category, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/generate/"+category, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestGenerate_RequiresToken(t *testing.T) {
	gen := &testutil.StaticGenerator{Text: "hi"}
	srv, _ := setupTestServer(t, gen)
	sess := createSession(t, srv, "GlowSkin")

	w := do(t, srv, http.MethodPost, "/api/sessions/"+sess.ID+"/generate/event-suggestion", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+sess.ID+"/generate/event-suggestion", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 for wrong token, got %d", w.Code)
	}

	if gen.N != 0 {
		t.Errorf("generator called %d times without auth", gen.N)
	}
}

func TestGenerate_Success(t *testing.T) {
	gen := &testutil.StaticGenerator{Text: "## Send an SMS\nEarly nudge."}
	srv, st := setupTestServer(t, gen)
	sess := createSession(t, srv, "GlowSkin")
	do(t, srv, http.MethodPost, "/api/sessions/"+sess.ID+"/events", `{"event":"Cart Abandoned"}`)

	w := generate(t, srv, sess.ID, "event-suggestion", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Category string      `json:"category"`
		Title    string      `json:"title"`
		Text     string      `json:"text"`
		Session  sessionBody `json:"session"`
	}
	decode(t, w, &resp)

	if resp.Text != gen.Text {
		t.Errorf("expected text %q, got %q", gen.Text, resp.Text)
	}
	if resp.Title != "Event-Specific Recommendations" {
		t.Errorf("unexpected title %q", resp.Title)
	}
	if resp.Session.Responses["event-suggestion"] != gen.Text {
		t.Errorf("expected response stored on session, got %v", resp.Session.Responses)
	}
	if !strings.Contains(gen.Last.Prompt, "Cart Abandoned") {
		t.Errorf("expected timeline in prompt, got %q", gen.Last.Prompt)
	}
	if gen.Last.MaxTokens != 500 {
		t.Errorf("expected 500 max tokens, got %d", gen.Last.MaxTokens)
	}

	gens, err := st.GetGenerations(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("failed to load history: %v", err)
	}
	if len(gens) != 1 || gens[0].Status != "ok" || gens[0].Provider != "static" {
		t.Errorf("unexpected history %+v", gens)
	}
}

func TestGenerate_SuccessClearsOtherCategories(t *testing.T) {
	gen := &testutil.StaticGenerator{Text: "first"}
	srv, _ := setupTestServer(t, gen)
	sess := createSession(t, srv, "PulseFit")

	generate(t, srv, sess.ID, "event-suggestion", "")
	gen.Text = "second"
	w := generate(t, srv, sess.ID, "journey_optimization", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Session sessionBody `json:"session"`
	}
	decode(t, w, &resp)
	if len(resp.Session.Responses) != 1 || resp.Session.Responses["journey-optimization"] != "second" {
		t.Errorf("expected only journey optimization, got %v", resp.Session.Responses)
	}
}

func TestGenerate_FailureIsBadGateway(t *testing.T) {
	gen := &testutil.StaticGenerator{Text: "kept"}
	srv, st := setupTestServer(t, gen)
	sess := createSession(t, srv, "JetQuest")
	base := "/api/sessions/" + sess.ID

	generate(t, srv, sess.ID, "event-suggestion", "")

	gen.Err = errQuota
	w := generate(t, srv, sess.ID, "journey-optimization", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "quota") {
		t.Errorf("expected provider message in error, got %s", w.Body.String())
	}

	w = do(t, srv, http.MethodGet, base, "")
	decode(t, w, &sess)
	if sess.Responses["event-suggestion"] != "kept" {
		t.Errorf("expected other category untouched, got %v", sess.Responses)
	}
	if _, ok := sess.Responses["journey-optimization"]; ok {
		t.Errorf("expected failing category cleared, got %v", sess.Responses)
	}

	gens, _ := st.GetGenerations(context.Background(), sess.ID)
	if len(gens) != 2 || gens[1].Status != "failed" || gens[1].Error == "" {
		t.Errorf("expected failed generation recorded, got %+v", gens)
	}
}

func TestGenerate_MissingKeyIsUnavailable(t *testing.T) {
	srv, _ := setupTestServer(t, nil)
	sess := createSession(t, srv, "GlowSkin")

	w := generate(t, srv, sess.ID, "event-suggestion", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGenerate_FactoryErrorIsRetried(t *testing.T) {
	s := testutil.SetupTestStore(t)
	calls := 0
	srv := server.New(s, server.Options{
		Token: "secret",
		Generator: func(context.Context) (llm.Generator, error) {
			calls++
			if calls == 1 {
				return nil, fmt.Errorf("%w: set OPENAI_API_KEY", llm.ErrMissingAPIKey)
			}
			return &testutil.StaticGenerator{Text: "ok"}, nil
		},
	})
	sess := createSession(t, srv, "GlowSkin")

	if w := generate(t, srv, sess.ID, "event-suggestion", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 first, got %d", w.Code)
	}
	if w := generate(t, srv, sess.ID, "event-suggestion", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 second, got %d", w.Code)
	}
}

func TestGenerate_InputErrors(t *testing.T) {
	gen := &testutil.StaticGenerator{Text: "x"}
	srv, _ := setupTestServer(t, gen)
	sess := createSession(t, srv, "LeadSync")

	tests := []struct {
		name     string
		category string
		body     string
		status   int
	}{
		{"unknown category", "poem", "", http.StatusBadRequest},
		{"ab strategy with empty timeline", "ab-test-strategy", "", http.StatusUnprocessableEntity},
		{"business impact without profile", "business-impact", "", http.StatusUnprocessableEntity},
		{"competitive without competitor", "competitive-positioning", `{"competitive":{"priorities":["Cost"]}}`, http.StatusUnprocessableEntity},
		{"integration without profile", "integration-analysis", "", http.StatusUnprocessableEntity},
		{"bad sample size", "ab-test-strategy", `{"sample_size":{"base_rate":2,"lift":0}}`, http.StatusUnprocessableEntity},
		{"missing session", "event-suggestion", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := sess.ID
			if tt.status == http.StatusNotFound {
				id = "missing"
			}
			w := generate(t, srv, id, tt.category, tt.body)
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}

	if gen.N != 0 {
		t.Errorf("expected no model calls, got %d", gen.N)
	}
}

func TestGenerate_ABStrategyWithSampleSize(t *testing.T) {
	gen := &testutil.StaticGenerator{Text: "test plan"}
	srv, _ := setupTestServer(t, gen)
	sess := createSession(t, srv, "LeadSync")
	do(t, srv, http.MethodPost, "/api/sessions/"+sess.ID+"/events", `{"event":"Trial Started"}`)

	body := `{"sample_size":{"test_type":"Email Subject Line","base_rate":2.5,"lift":15,"confidence":95}}`
	w := generate(t, srv, sess.ID, "ab-test-strategy", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(gen.Last.Prompt, "Email Subject Line") {
		t.Errorf("expected test type in prompt, got %q", gen.Last.Prompt)
	}
	if gen.Last.MaxTokens != 600 {
		t.Errorf("expected 600 max tokens, got %d", gen.Last.MaxTokens)
	}
}

func TestGenerate_BusinessImpact(t *testing.T) {
	gen := &testutil.StaticGenerator{Text: "ROI"}
	srv, _ := setupTestServer(t, gen)
	sess := createSession(t, srv, "GlowSkin")

	body := `{"business":{"email_platform":"Mailchimp","sms_platform":"Twilio","push_platform":"OneSignal","team_size":6,"monthly_emails":250000,"monthly_revenue":500000,"challenges":["Data silos"]}}`
	w := generate(t, srv, sess.ID, "business-impact", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(gen.Last.Prompt, "Mailchimp") {
		t.Errorf("expected profile in prompt, got %q", gen.Last.Prompt)
	}
	if gen.Last.MaxTokens != 800 {
		t.Errorf("expected 800 max tokens, got %d", gen.Last.MaxTokens)
	}
}
