package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/journey-copilot/journey-copilot/internal/llm"
	"github.com/journey-copilot/journey-copilot/internal/persona"
	"github.com/journey-copilot/journey-copilot/internal/prompt"
	"github.com/journey-copilot/journey-copilot/internal/session"
	"github.com/journey-copilot/journey-copilot/internal/stats"
	"github.com/journey-copilot/journey-copilot/internal/store"
)

type HealthResponse struct {
	Status        string `json:"status"`
	SessionsCount int    `json:"sessions_count"`
	DBSizeBytes   int64  `json:"db_size_bytes"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := s.store.CountSessions(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	// Get database size when the store is SQLite
	var dbSize int64
	if sq, ok := s.store.(*store.SQLiteStore); ok {
		row := sq.DB().QueryRowContext(ctx, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
		if err := row.Scan(&dbSize); err != nil {
			s.logger.Debug("failed to read database size", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		SessionsCount: count,
		DBSizeBytes:   dbSize,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

type personaResponse struct {
	Name       persona.Persona                `json:"name"`
	Summary    string                         `json:"summary"`
	Events     []persona.Event                `json:"events"`
	Highlights map[persona.Event]persona.Node `json:"highlights"`
}

func (s *Server) handlePersonas(w http.ResponseWriter, r *http.Request) {
	profiles := persona.Default().Profiles()

	out := make([]personaResponse, len(profiles))
	for i, p := range profiles {
		out[i] = personaResponse{
			Name:       p.Name,
			Summary:    p.Summary,
			Events:     p.Events,
			Highlights: p.Highlights,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"personas": out})
}

type diagramResponse struct {
	Persona   persona.Persona `json:"persona"`
	Highlight persona.Node    `json:"highlight,omitempty"`
	Mermaid   string          `json:"mermaid"`
}

// handleDiagram renders a persona journey. Optional query params: event
// (label to resolve) and node (override).
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	p, err := persona.ParsePersona(r.PathValue("persona"))
	if err != nil {
		writeError(w, err)
		return
	}
	prof, err := persona.Default().Profile(p)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	var event persona.Event
	if label := q.Get("event"); label != "" {
		if event, err = prof.LookupEvent(label); err != nil {
			writeError(w, err)
			return
		}
	}
	var override persona.Node
	if id := q.Get("node"); id != "" {
		if override, err = prof.LookupNode(id); err != nil {
			writeError(w, err)
			return
		}
	}

	highlight := persona.ResolveHighlight(p, event, override)
	writeJSON(w, http.StatusOK, diagramResponse{
		Persona:   p,
		Highlight: highlight,
		Mermaid:   prof.Diagram.Mermaid(highlight),
	})
}

type sampleSizeRequest struct {
	TestType    string           `json:"test_type"`
	BaseRate    float64          `json:"base_rate"`
	Lift        float64          `json:"lift"`
	Confidence  stats.Confidence `json:"confidence"`
	DailyVolume int              `json:"daily_volume"`
}

type sampleSizeResponse struct {
	TestType     string  `json:"test_type,omitempty"`
	BaseRate     float64 `json:"base_rate"`
	Lift         float64 `json:"lift"`
	Confidence   int     `json:"confidence"`
	DailyVolume  int     `json:"daily_volume"`
	PerVariant   int     `json:"per_variant"`
	DurationDays int     `json:"duration_days"`
}

func (req sampleSizeRequest) config(defaultVolume int) stats.TestConfig {
	cfg := stats.TestConfig{
		TestType:    req.TestType,
		BaseRatePct: req.BaseRate,
		LiftPct:     req.Lift,
		Confidence:  req.Confidence,
		DailyVolume: req.DailyVolume,
	}
	if cfg.Confidence == 0 {
		cfg.Confidence = stats.Confidence95
	}
	if cfg.DailyVolume == 0 {
		cfg.DailyVolume = defaultVolume
	}
	return cfg
}

func (s *Server) handleSampleSize(w http.ResponseWriter, r *http.Request) {
	var req sampleSizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	cfg := req.config(s.dailyVolume)
	res, err := stats.EstimateSampleSize(cfg)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sampleSizeResponse{
		TestType:     cfg.TestType,
		BaseRate:     cfg.BaseRatePct,
		Lift:         cfg.LiftPct,
		Confidence:   int(cfg.Confidence),
		DailyVolume:  cfg.DailyVolume,
		PerVariant:   res.PerVariant,
		DurationDays: res.DurationDays,
	})
}

type evaluateRequest struct {
	Variants []struct {
		Name        string `json:"name"`
		Sends       int    `json:"sends"`
		Conversions int    `json:"conversions"`
	} `json:"variants"`
}

type apiVariantResult struct {
	Name        string  `json:"name"`
	Sends       int     `json:"sends"`
	Conversions int     `json:"conversions"`
	Rate        float64 `json:"rate"`
	CILower     float64 `json:"ci_lower"`
	CIUpper     float64 `json:"ci_upper"`
}

type evaluateResponse struct {
	Results            []apiVariantResult `json:"results"`
	LeadingVariant     int                `json:"leading_variant"`
	LeadingVariantName string             `json:"leading_variant_name"`
	ConfidenceLevel    float64            `json:"confidence_level"`
	Significant        bool               `json:"significant"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	counts := make([]stats.VariantCounts, len(req.Variants))
	for i, v := range req.Variants {
		counts[i] = stats.VariantCounts{Name: v.Name, Sends: v.Sends, Conversions: v.Conversions}
	}

	readout, err := stats.Evaluate(counts)
	if err != nil {
		writeError(w, err)
		return
	}

	results := make([]apiVariantResult, len(readout.Variants))
	for i, v := range readout.Variants {
		results[i] = apiVariantResult{
			Name:        v.Name,
			Sends:       v.Sends,
			Conversions: v.Conversions,
			Rate:        v.Rate,
			CILower:     v.CILower,
			CIUpper:     v.CIUpper,
		}
	}

	writeJSON(w, http.StatusOK, evaluateResponse{
		Results:            results,
		LeadingVariant:     readout.Leading,
		LeadingVariantName: readout.Variants[readout.Leading].Name,
		ConfidenceLevel:    readout.ConfidenceLevel,
		Significant:        readout.Significant,
	})
}

type sessionResponse struct {
	ID           string                     `json:"id"`
	Persona      persona.Persona            `json:"persona"`
	Timeline     []persona.Event            `json:"timeline"`
	TimelineText string                     `json:"timeline_text"`
	Selected     persona.Event              `json:"selected,omitempty"`
	Override     persona.Node               `json:"override,omitempty"`
	Highlight    persona.Node               `json:"highlight,omitempty"`
	Mermaid      string                     `json:"mermaid"`
	Responses    map[prompt.Category]string `json:"responses"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

// newSessionResponse copies everything out of sess, so it is safe to
// encode after the session lock is released.
func newSessionResponse(sess *session.Session) (sessionResponse, error) {
	mermaid, err := sess.Diagram()
	if err != nil {
		return sessionResponse{}, err
	}

	responses := make(map[prompt.Category]string, len(sess.Responses))
	for c, text := range sess.Responses {
		responses[c] = text
	}

	return sessionResponse{
		ID:           sess.ID,
		Persona:      sess.Persona,
		Timeline:     append([]persona.Event{}, sess.Timeline...),
		TimelineText: sess.Timeline.String(),
		Selected:     sess.Selected,
		Override:     sess.Override,
		Highlight:    sess.Highlight(),
		Mermaid:      mermaid,
		Responses:    responses,
		CreatedAt:    sess.CreatedAt,
		UpdatedAt:    sess.UpdatedAt,
	}, nil
}

type personaRequest struct {
	Persona string `json:"persona"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req personaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var p persona.Persona
	if req.Persona != "" {
		var err error
		if p, err = persona.ParsePersona(req.Persona); err != nil {
			writeError(w, err)
			return
		}
	}

	sess, err := session.New(p)
	if err != nil {
		writeError(w, err)
		return
	}

	resp, err := newSessionResponse(sess)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.create(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("session created", zap.String("session", sess.ID), zap.String("persona", string(sess.Persona)))
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	var resp sessionResponse
	err := s.view(r.Context(), r.PathValue("id"), func(sess *session.Session) (err error) {
		resp, err = newSessionResponse(sess)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSwitchPersona(w http.ResponseWriter, r *http.Request) {
	var req personaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.respondMutation(w, r, func(sess *session.Session) error {
		p, err := persona.ParsePersona(req.Persona)
		if err != nil {
			return err
		}
		return sess.SwitchPersona(p)
	})
}

type eventRequest struct {
	Event string `json:"event"`
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.respondMutation(w, r, func(sess *session.Session) error {
		_, _, err := sess.AddEvent(req.Event)
		return err
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.respondMutation(w, r, func(sess *session.Session) error {
		sess.Reset()
		return nil
	})
}

type highlightRequest struct {
	Node string `json:"node"`
}

// handleHighlight sets the override node; an empty node clears it.
func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.respondMutation(w, r, func(sess *session.Session) error {
		if req.Node == "" {
			sess.ClearOverride()
			return nil
		}
		_, err := sess.SetOverride(req.Node)
		return err
	})
}

// respondMutation applies fn to the session in the path and writes the
// resulting session.
func (s *Server) respondMutation(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	var resp sessionResponse
	err := s.mutate(r.Context(), r.PathValue("id"), func(sess *session.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		var err error
		resp, err = newSessionResponse(sess)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type generateRequest struct {
	Platform    string                       `json:"platform"`
	SampleSize  *sampleSizeRequest           `json:"sample_size"`
	Business    *prompt.BusinessProfile      `json:"business"`
	Competitive *prompt.CompetitiveSituation `json:"competitive"`
	Integration *prompt.IntegrationProfile   `json:"integration"`
}

type generateResponse struct {
	Category prompt.Category `json:"category"`
	Title    string          `json:"title"`
	Text     string          `json:"text"`
	Session  sessionResponse `json:"session"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	category, err := prompt.ParseCategory(r.PathValue("category"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := session.Inputs{
		Platform:    req.Platform,
		Business:    req.Business,
		Competitive: req.Competitive,
		Integration: req.Integration,
	}
	if req.SampleSize != nil {
		cfg := req.SampleSize.config(s.dailyVolume)
		res, err := stats.EstimateSampleSize(cfg)
		if err != nil {
			writeError(w, err)
			return
		}
		in.SampleSize = &prompt.SampleSize{Config: cfg, Result: res}
	}

	gen, err := s.generatorFor(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	var (
		record *session.Generation
		resp   generateResponse
	)
	err = s.mutate(ctx, r.PathValue("id"), func(sess *session.Session) error {
		g, genErr := sess.Generate(ctx, gen, category, in)
		record = g
		if genErr != nil {
			return genErr
		}
		view, err := newSessionResponse(sess)
		if err != nil {
			return err
		}
		resp = generateResponse{Category: category, Title: category.Title(), Text: g.Response, Session: view}
		return nil
	})

	if record != nil {
		if recErr := s.store.RecordGeneration(ctx, record); recErr != nil {
			s.logger.Error("failed to record generation", zap.String("session", record.SessionID), zap.Error(recErr))
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("generated response",
		zap.String("session", record.SessionID),
		zap.String("category", string(category)),
		zap.String("provider", record.Provider))
	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, llm.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	case llm.IsGenerationError(err):
		return http.StatusBadGateway
	case errors.Is(err, errInvalidJSON),
		errors.Is(err, persona.ErrUnknownPersona),
		errors.Is(err, persona.ErrUnknownEvent),
		errors.Is(err, persona.ErrUnknownNode),
		errors.Is(err, prompt.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, stats.ErrZeroLift),
		errors.Is(err, stats.ErrRateOutOfRange),
		errors.Is(err, stats.ErrInvalidVolume),
		errors.Is(err, stats.ErrLiftTooSmall),
		errors.Is(err, stats.ErrUnsupportedConfidence),
		errors.Is(err, stats.ErrTooFewVariants),
		errors.Is(err, stats.ErrInvalidCounts),
		errors.Is(err, prompt.ErrMissingInput),
		errors.Is(err, session.ErrEmptyTimeline):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	writeJSONError(w, status, msg)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

var errInvalidJSON = errors.New("invalid JSON")

// decodeJSON decodes the request body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.Is(err, stats.ErrUnsupportedConfidence):
		return err
	}
	return errInvalidJSON
}
