package server_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/journey-copilot/journey-copilot/internal/llm"
	"github.com/journey-copilot/journey-copilot/internal/server"
)

func TestSession_SeesWritesFromOtherWriters(t *testing.T) {
	srv, st := setupTestServer(t, nil)
	ctx := context.Background()
	sess := createSession(t, srv, "GlowSkin")
	base := "/api/sessions/" + sess.ID

	// warm the cache
	do(t, srv, http.MethodGet, base, "")

	// the CLI writes to the same database
	stored, err := st.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := stored.AddEvent("Cart Abandoned"); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveSession(ctx, stored); err != nil {
		t.Fatal(err)
	}

	w := do(t, srv, http.MethodGet, base, "")
	decode(t, w, &sess)
	if len(sess.Timeline) != 1 || sess.Timeline[0] != "Cart Abandoned" {
		t.Fatalf("expected server to see the stored timeline, got %v", sess.Timeline)
	}

	w = do(t, srv, http.MethodPost, base+"/events", `{"event":"Email Opened"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	got, err := st.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Timeline.String() != "Cart Abandoned → Email Opened" {
		t.Errorf("expected both events stored, got %s", got.Timeline)
	}
}

func TestGenerate_ConcurrentWriteIsConflict(t *testing.T) {
	s, st := setupTestServer(t, nil)
	sess := createSession(t, s, "GlowSkin")

	// a second writer saves while the model call is in flight
	gen := llm.GeneratorFunc(func(ctx context.Context, req llm.Request) (string, error) {
		stored, err := st.GetSession(ctx, sess.ID)
		if err != nil {
			return "", err
		}
		stored.AddEvent("Unsubscribed")
		if err := st.SaveSession(ctx, stored); err != nil {
			return "", err
		}
		return "advice", nil
	})
	srv := server.New(st, server.Options{
		Token:     "secret",
		Generator: func(context.Context) (llm.Generator, error) { return gen, nil },
	})

	w := generate(t, srv, sess.ID, "event-suggestion", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", w.Code, w.Body.String())
	}

	got, err := st.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Timeline) != 1 || got.Timeline[0] != "Unsubscribed" {
		t.Errorf("expected the other writer's event kept, got %v", got.Timeline)
	}

	// the next request works from the stored state
	w = do(t, srv, http.MethodGet, "/api/sessions/"+sess.ID, "")
	decode(t, w, &sess)
	if len(sess.Timeline) != 1 {
		t.Errorf("expected stored timeline, got %v", sess.Timeline)
	}
}
