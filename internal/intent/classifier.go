package intent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kalambet/careervibe/internal/chat"
	"github.com/kalambet/careervibe/internal/engine"
)

const (
	classifyTimeout     = 20 * time.Second
	classifyTemperature = 0.3
	fallbackConfidence  = 0.5
)

// Intent is one of the fixed conversation intents.
type Intent string

const (
	SearchProfession   Intent = "search_profession"
	Uncertain          Intent = "uncertain"
	Clarification      Intent = "clarification"
	ScenarioChoice     Intent = "scenario_choice"
	GameDay            Intent = "game_day"
	CompareProfessions Intent = "compare_professions"
	ShowImpact         Intent = "show_impact"
	ShowSimilar        Intent = "show_similar"
	ShowTasks          Intent = "show_tasks"
	ShowCareerDetails  Intent = "show_career_details"
	ExplainLevels      Intent = "explain_levels"
	SaveCard           Intent = "save_card"
	ShareCard          Intent = "share_card"
	GeneralChat        Intent = "general_chat"
)

// All lists every intent in prompt order.
var All = []Intent{
	SearchProfession, Uncertain, Clarification, ScenarioChoice, GameDay,
	CompareProfessions, ShowImpact, ShowSimilar, ShowTasks, ShowCareerDetails,
	ExplainLevels, SaveCard, ShareCard, GeneralChat,
}

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool {
	for _, k := range All {
		if i == k {
			return true
		}
	}
	return false
}

// Extracted holds the structured details pulled out of the message.
type Extracted struct {
	Profession           string   `json:"profession,omitempty"`
	Skills               []string `json:"skills,omitempty"`
	Level                string   `json:"level,omitempty"`
	Interests            []string `json:"interests,omitempty"`
	ProfessionsToCompare []string `json:"professionsToCompare,omitempty"`
	LevelsToCompare      []string `json:"levelsToCompare,omitempty"`
}

// Result is the classification of one message.
type Result struct {
	Intent     Intent    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Extracted  Extracted `json:"extractedInfo"`
}

// Fallback is returned whenever classification fails.
func Fallback() Result {
	return Result{Intent: GeneralChat, Confidence: fallbackConfidence}
}

// Classifier maps a user message to an Intent using the LLM.
type Classifier struct {
	gen     engine.Generator
	timeout time.Duration
}

// NewClassifier creates a Classifier backed by gen.
func NewClassifier(gen engine.Generator) *Classifier {
	return &Classifier{gen: gen, timeout: classifyTimeout}
}

// Classify returns the intent of message given the recent history.
// On any failure (timeout, malformed JSON, unknown intent, backend error) it
// returns Fallback(): the dialogue must never stall on classification.
func (c *Classifier) Classify(ctx context.Context, message string, history []chat.Message) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.gen.Generate(ctx, BuildPrompt(message, history), engine.Options{
		Temperature: classifyTemperature,
		JSONMode:    true,
	})
	if err != nil {
		slog.Warn("intent classification failed", "error", err)
		return Fallback()
	}

	r, err := engine.ParseJSON(raw)
	if err != nil {
		slog.Warn("intent classification returned malformed JSON", "error", err, "response", raw)
		return Fallback()
	}

	res, ok := parseResult(r)
	if !ok {
		slog.Warn("intent classification returned unknown intent", "intent", r.Get("intent").String())
		return Fallback()
	}
	return res
}

func parseResult(r gjson.Result) (Result, bool) {
	in := Intent(strings.ToLower(strings.TrimSpace(r.Get("intent").String())))
	if !in.Valid() {
		return Result{}, false
	}

	conf := fallbackConfidence
	if c := r.Get("confidence"); c.Exists() && c.Type != gjson.Null {
		conf = clamp(c.Float())
	}

	info := r.Get("extractedInfo")
	return Result{
		Intent:     in,
		Confidence: conf,
		Extracted: Extracted{
			Profession:           placeholderless(info.Get("profession").String()),
			Skills:               engine.Strings(info.Get("skills")),
			Level:                placeholderless(info.Get("level").String()),
			Interests:            engine.Strings(info.Get("interests")),
			ProfessionsToCompare: engine.Strings(info.Get("professionsToCompare")),
			LevelsToCompare:      engine.Strings(info.Get("levelsToCompare")),
		},
	}, true
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// placeholderless drops values the model copied from the prompt template.
func placeholderless(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "если упоминается") || s == "junior/middle/senior" {
		return ""
	}
	return s
}
