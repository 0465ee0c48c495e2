package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/journey-copilot/journey-copilot/internal/dashboard"
	"github.com/journey-copilot/journey-copilot/internal/prompt"
	"github.com/journey-copilot/journey-copilot/internal/session"
)

// Dashboard template data structures
type layoutData struct {
	Title   string
	CSS     template.CSS
	Content template.HTML
}

type listData struct {
	Sessions []sessionListItem
}

type sessionListItem struct {
	ID         string
	ShortID    string
	Persona    string
	EventCount int
	Highlight  string
	UpdatedAt  string
}

type sessionPageData struct {
	Persona        string
	Summary        string
	Timeline       string
	Selected       string
	Highlight      string
	HighlightLabel string
	Mermaid        string
	MermaidScript  string
	Responses      []responseItem
	Generations    []generationItem
}

type responseItem struct {
	Title string
	Text  string
}

type generationItem struct {
	CreatedAt string
	Category  string
	Provider  string
	Status    string
	Error     string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	// Handle logout
	if r.URL.Query().Get("logout") == "1" {
		http.SetCookie(w, &http.Cookie{
			Name:   tokenCookieName,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		http.Error(w, "Failed to load sessions", http.StatusInternalServerError)
		return
	}

	items := make([]sessionListItem, len(sessions))
	for i, sess := range sessions {
		items[i] = sessionListItem{
			ID:         sess.ID,
			ShortID:    shortID(sess.ID),
			Persona:    string(sess.Persona),
			EventCount: len(sess.Timeline),
			Highlight:  string(sess.Highlight()),
			UpdatedAt:  sess.UpdatedAt.Format("Jan 2, 2006 15:04"),
		}
	}

	s.renderDashboard(w, "Sessions", "list.html", listData{Sessions: items})
}

func (s *Server) handleDashboardSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var data sessionPageData
	err := s.view(ctx, id, func(sess *session.Session) error {
		prof, err := sess.Profile()
		if err != nil {
			return err
		}
		mermaid, err := sess.Diagram()
		if err != nil {
			return err
		}

		data = sessionPageData{
			Persona:       string(sess.Persona),
			Summary:       prof.Summary,
			Timeline:      sess.Timeline.String(),
			Selected:      string(sess.Selected),
			Highlight:     string(sess.Highlight()),
			Mermaid:       mermaid,
			MermaidScript: dashboard.MermaidScript,
		}
		if n, ok := prof.Diagram.Node(sess.Highlight()); ok {
			data.HighlightLabel = n.Label
		}
		for _, c := range prompt.Categories {
			if text, ok := sess.Response(c); ok {
				data.Responses = append(data.Responses, responseItem{Title: c.Title(), Text: text})
			}
		}
		return nil
	})
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}

	gens, err := s.store.GetGenerations(ctx, id)
	if err != nil {
		s.logger.Warn("failed to load generation history", zap.String("session", id), zap.Error(err))
	}
	for _, g := range gens {
		data.Generations = append(data.Generations, generationItem{
			CreatedAt: g.CreatedAt.Format("Jan 2, 15:04"),
			Category:  g.Category.Title(),
			Provider:  g.Provider,
			Status:    string(g.Status),
			Error:     g.Error,
		})
	}

	s.renderDashboard(w, data.Persona, "session.html", data)
}

func (s *Server) renderDashboard(w http.ResponseWriter, title, contentTemplate string, data interface{}) {
	// Load CSS
	cssBytes, err := dashboard.Assets.ReadFile("assets/style.css")
	if err != nil {
		http.Error(w, "Failed to load styles", http.StatusInternalServerError)
		return
	}

	// Load and execute content template
	contentTmplBytes, err := dashboard.Templates.ReadFile("templates/" + contentTemplate)
	if err != nil {
		http.Error(w, "Failed to load template", http.StatusInternalServerError)
		return
	}

	contentTmpl, err := template.New("content").Parse(string(contentTmplBytes))
	if err != nil {
		http.Error(w, "Failed to parse template", http.StatusInternalServerError)
		return
	}

	var contentBuf bytes.Buffer
	if err := contentTmpl.Execute(&contentBuf, data); err != nil {
		http.Error(w, fmt.Sprintf("Failed to render template: %v", err), http.StatusInternalServerError)
		return
	}

	// Load and execute layout template
	layoutTmplBytes, err := dashboard.Templates.ReadFile("templates/layout.html")
	if err != nil {
		http.Error(w, "Failed to load layout", http.StatusInternalServerError)
		return
	}

	layoutTmpl, err := template.New("layout").Parse(string(layoutTmplBytes))
	if err != nil {
		http.Error(w, "Failed to parse layout", http.StatusInternalServerError)
		return
	}

	layoutData := layoutData{
		Title:   title,
		CSS:     template.CSS(cssBytes),
		Content: template.HTML(contentBuf.String()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := layoutTmpl.Execute(w, layoutData); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
