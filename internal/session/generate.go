package session

import (
	"context"
	"fmt"
	"time"

	"github.com/journey-copilot/journey-copilot/internal/llm"
	"github.com/journey-copilot/journey-copilot/internal/prompt"
)

type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Inputs are the category-specific extras a caller collects before
// generating. Only the field the category needs has to be set.
type Inputs struct {
	Platform    string
	SampleSize  *prompt.SampleSize
	Business    *prompt.BusinessProfile
	Competitive *prompt.CompetitiveSituation
	Integration *prompt.IntegrationProfile
}

// Generation is the record of one generate call, successful or not.
type Generation struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	Category  prompt.Category `json:"category"`
	Provider  string          `json:"provider"`
	Prompt    string          `json:"prompt"`
	Response  string          `json:"response,omitempty"`
	Status    Status          `json:"status"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// PromptContext collects everything the prompt builder may interpolate from
// the session state plus the caller's extras.
func (s *Session) PromptContext(in Inputs) (prompt.Context, error) {
	prof, err := s.Profile()
	if err != nil {
		return prompt.Context{}, err
	}

	ctx := prompt.Context{
		Platform:    in.Platform,
		Persona:     s.Persona,
		Summary:     prof.Summary,
		Timeline:    s.Timeline,
		Highlight:   s.Highlight(),
		SampleSize:  in.SampleSize,
		Business:    in.Business,
		Competitive: in.Competitive,
		Integration: in.Integration,
	}
	if n, ok := prof.Diagram.Node(ctx.Highlight); ok {
		ctx.HighlightLabel = n.Label
	}
	return ctx, nil
}

// Generate builds the category prompt, sends it to gen and stores the reply.
//
// On success the reply becomes the only live response: every other
// category is cleared. On failure only this category is cleared and the
// returned error wraps the generator's error. The returned Generation is
// nil only when no prompt could be built.
func (s *Session) Generate(ctx context.Context, gen llm.Generator, c prompt.Category, in Inputs) (*Generation, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", prompt.ErrUnknownCategory, c)
	}
	if c == prompt.ABTestStrategy && len(s.Timeline) == 0 {
		return nil, ErrEmptyTimeline
	}

	pc, err := s.PromptContext(in)
	if err != nil {
		return nil, err
	}
	p, err := prompt.Build(c, pc)
	if err != nil {
		return nil, err
	}

	g := &Generation{
		SessionID: s.ID,
		Category:  c,
		Provider:  gen.Name(),
		Prompt:    p.User,
		CreatedAt: time.Now().UTC(),
	}

	text, err := gen.Generate(ctx, llm.Request{
		System:    p.System,
		Prompt:    p.User,
		MaxTokens: p.MaxTokens,
	})
	if err != nil {
		delete(s.Responses, c)
		s.touch()
		g.Status = StatusFailed
		g.Error = err.Error()
		return g, fmt.Errorf("%s: %w", c, err)
	}

	s.Responses = map[prompt.Category]string{c: text}
	s.touch()
	g.Status = StatusOK
	g.Response = text
	return g, nil
}
