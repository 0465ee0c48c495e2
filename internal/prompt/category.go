package prompt

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCategory = errors.New("unknown prompt category")

// Category is a kind of AI response the copilot can generate.
type Category string

const (
	EventSuggestion        Category = "event-suggestion"
	JourneyOptimization    Category = "journey-optimization"
	ABTestStrategy         Category = "ab-test-strategy"
	BusinessImpact         Category = "business-impact"
	CompetitivePositioning Category = "competitive-positioning"
	IntegrationAnalysis    Category = "integration-analysis"
)

// Categories lists every category in display order.
var Categories = []Category{
	EventSuggestion,
	JourneyOptimization,
	ABTestStrategy,
	BusinessImpact,
	CompetitivePositioning,
	IntegrationAnalysis,
}

type categorySpec struct {
	title     string
	system    string
	maxTokens int
	template  string
}

var specs = map[Category]categorySpec{
	EventSuggestion: {
		title:     "Event-Specific Recommendations",
		system:    "You are a senior marketing strategist specializing in customer engagement and MarTech.",
		maxTokens: 500,
		template:  "event_suggestion.tmpl",
	},
	JourneyOptimization: {
		title:     "Journey Optimization Strategy",
		system:    "You are a customer journey optimization expert specializing in lifecycle marketing and conversion optimization.",
		maxTokens: 600,
		template:  "journey_optimization.tmpl",
	},
	ABTestStrategy: {
		title:     "A/B Test Strategy",
		system:    "You are a conversion optimization expert specializing in A/B testing and statistical analysis for marketing campaigns.",
		maxTokens: 600,
		template:  "ab_test_strategy.tmpl",
	},
	BusinessImpact: {
		title:     "Personalized Business Impact Analysis",
		system:    "You are a business impact analyst specializing in MarTech ROI analysis and platform consolidation benefits.",
		maxTokens: 800,
		template:  "business_impact.tmpl",
	},
	CompetitivePositioning: {
		title:     "Competitive Positioning",
		system:    "You are a solutions consultant who positions platforms on business fit and outcomes, never by disparaging competitors.",
		maxTokens: 600,
		template:  "competitive_positioning.tmpl",
	},
	IntegrationAnalysis: {
		title:     "Calculated Business Impact",
		system:    "You are an ROI analyst specializing in MarTech transformation impact calculations.",
		maxTokens: 400,
		template:  "integration_analysis.tmpl",
	},
}

func (c Category) Valid() bool {
	_, ok := specs[c]
	return ok
}

// Title is the heading shown above a response of this category.
func (c Category) Title() string {
	return specs[c].title
}

// ParseCategory accepts the canonical name, with underscores or spaces in
// place of dashes.
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-", "/", "").Replace(norm)
	c := Category(norm)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}
