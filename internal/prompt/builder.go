package prompt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/journey-copilot/journey-copilot/internal/persona"
	"github.com/journey-copilot/journey-copilot/internal/stats"
)

//go:embed templates/*.tmpl
var Templates embed.FS

// DefaultPlatform is the engagement platform the prompts speak for.
const DefaultPlatform = "Iterable"

var ErrMissingInput = errors.New("missing prompt input")

// Context is everything a prompt may interpolate. Only the fields a
// category needs have to be set.
type Context struct {
	Platform       string
	Persona        persona.Persona
	Summary        string
	Timeline       persona.Timeline
	Highlight      persona.Node
	HighlightLabel string
	SampleSize     *SampleSize
	Business       *BusinessProfile
	Competitive    *CompetitiveSituation
	Integration    *IntegrationProfile
}

// SampleSize carries a computed test sizing into the A/B strategy prompt.
type SampleSize struct {
	Config stats.TestConfig
	Result stats.SampleSizeResult
}

type BusinessProfile struct {
	EmailPlatform  string   `json:"email_platform"`
	SMSPlatform    string   `json:"sms_platform"`
	PushPlatform   string   `json:"push_platform"`
	TeamSize       int      `json:"team_size"`
	MonthlyEmails  int      `json:"monthly_emails"`
	MonthlyRevenue int      `json:"monthly_revenue"`
	Challenges     []string `json:"challenges"`
}

type CompetitiveSituation struct {
	Competitor string   `json:"competitor"`
	Priorities []string `json:"priorities"`
}

type IntegrationProfile struct {
	DataSources []string `json:"data_sources"`
	Challenges  []string `json:"challenges"`
	Channels    []string `json:"channels"`
	TeamSize    string   `json:"team_size"`
}

// Prompt is a fully rendered request for the model.
type Prompt struct {
	Category  Category
	System    string
	User      string
	MaxTokens int
}

type templateData struct {
	Context
	Events string
}

var funcs = template.FuncMap{
	"join":      strings.Join,
	"thousands": thousands,
}

// Build renders the prompt for a category. An empty timeline is rendered as
// the fixed placeholder, never omitted.
func Build(c Category, ctx Context) (Prompt, error) {
	spec, ok := specs[c]
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	if err := checkInput(c, ctx); err != nil {
		return Prompt{}, err
	}

	if ctx.Platform == "" {
		ctx.Platform = DefaultPlatform
	}

	tmpl, err := template.New(spec.template).Funcs(funcs).ParseFS(Templates, "templates/"+spec.template)
	if err != nil {
		return Prompt{}, fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	data := templateData{Context: ctx, Events: ctx.Timeline.Join(", ")}
	if err := tmpl.Execute(&buf, data); err != nil {
		return Prompt{}, fmt.Errorf("failed to render %s prompt: %w", c, err)
	}

	return Prompt{
		Category:  c,
		System:    spec.system,
		User:      strings.TrimSpace(buf.String()),
		MaxTokens: spec.maxTokens,
	}, nil
}

func checkInput(c Category, ctx Context) error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s needs %s", ErrMissingInput, c, field)
	}

	if ctx.Persona == "" && c != BusinessImpact {
		return missing("a persona")
	}

	switch c {
	case BusinessImpact:
		b := ctx.Business
		if b == nil {
			return missing("a business profile")
		}
		if b.EmailPlatform == "" || b.SMSPlatform == "" {
			return missing("email and SMS platforms")
		}
		if len(b.Challenges) == 0 {
			return missing("at least one challenge")
		}
	case CompetitivePositioning:
		cs := ctx.Competitive
		if cs == nil || cs.Competitor == "" {
			return missing("a competitor")
		}
		if len(cs.Priorities) == 0 {
			return missing("at least one priority")
		}
	case IntegrationAnalysis:
		in := ctx.Integration
		if in == nil {
			return missing("an integration profile")
		}
		if len(in.DataSources) == 0 || len(in.Channels) == 0 || len(in.Challenges) == 0 {
			return missing("data sources, channels and challenges")
		}
	}
	return nil
}

// thousands formats n with comma separators.
func thousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
