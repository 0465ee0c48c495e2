package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/journey-copilot/journey-copilot/internal/testutil"
)

func withCookie(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "jc_token", Value: "secret"})
	return req
}

func TestDashboard_Unauthorized(t *testing.T) {
	srv, _ := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestDashboard_InvalidToken(t *testing.T) {
	srv, _ := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/dashboard?token=nope", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestDashboard_ValidToken(t *testing.T) {
	srv, _ := setupTestServer(t, nil)

	// First, access with token in query param
	req := httptest.NewRequest(http.MethodGet, "/dashboard?token="+srv.Token(), nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	// Should redirect and set cookie
	if w.Code != http.StatusFound {
		t.Errorf("expected status 302 (redirect), got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); strings.Contains(loc, "token=") {
		t.Errorf("expected token stripped from redirect, got %s", loc)
	}

	var tokenCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "jc_token" {
			tokenCookie = c
			break
		}
	}
	if tokenCookie == nil {
		t.Error("expected jc_token cookie to be set")
	}
}

func TestDashboard_ListsSessions(t *testing.T) {
	srv, _ := setupTestServer(t, nil)
	sess := createSession(t, srv, "JetQuest")

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, withCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil)))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "/dashboard/sessions/"+sess.ID) {
		t.Error("expected link to session")
	}
	if !strings.Contains(body, "JetQuest") {
		t.Error("expected persona name")
	}
}

func TestDashboard_Logout(t *testing.T) {
	srv, _ := setupTestServer(t, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, withCookie(httptest.NewRequest(http.MethodGet, "/dashboard?logout=1", nil)))

	if w.Code != http.StatusFound {
		t.Errorf("expected status 302, got %d", w.Code)
	}
}

func TestDashboardSession_RendersMermaid(t *testing.T) {
	gen := &testutil.StaticGenerator{Text: "Try a push at step K."}
	srv, _ := setupTestServer(t, gen)
	sess := createSession(t, srv, "GlowSkin")
	do(t, srv, http.MethodPost, "/api/sessions/"+sess.ID+"/events", `{"event":"Cart Abandoned"}`)
	generate(t, srv, sess.ID, "event-suggestion", "")

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, withCookie(httptest.NewRequest(http.MethodGet, "/dashboard/sessions/"+sess.ID, nil)))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()

	for _, want := range []string{
		`class="mermaid"`,
		"graph TD",
		"class E highlight;",
		"Cart Abandoned",
		"Event-Specific Recommendations",
		"Try a push at step K.",
		"mermaid.initialize",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

func TestDashboardSession_NotFound(t *testing.T) {
	srv, _ := setupTestServer(t, nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, withCookie(httptest.NewRequest(http.MethodGet, "/dashboard/sessions/missing", nil)))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
