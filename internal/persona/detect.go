package persona

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kalambet/careervibe/internal/chat"
	"github.com/kalambet/careervibe/internal/engine"
)

const detectTemperature = 0.3

// Detector infers persona updates from the conversation.
type Detector struct {
	gen    engine.Generator
	logger *slog.Logger
}

func NewDetector(gen engine.Generator) *Detector {
	return &Detector{gen: gen, logger: slog.Default()}
}

// Detect returns the persona delta implied by message. On any failure it
// returns an empty delta so the caller's persona is left untouched.
func (d *Detector) Detect(ctx context.Context, message string, history []chat.Message, current Persona) Persona {
	cur, err := json.Marshal(current)
	if err != nil {
		cur = []byte("{}")
	}

	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. На основе диалога определи профиль пользователя.

Текущий профиль: %s

История диалога:
%s

Новое сообщение: "%s"

Определи и обнови профиль пользователя. Ответь ТОЛЬКО в формате JSON:
{
  "experience": "junior/middle/senior/none",
  "interests": ["интерес1", "интерес2"],
  "currentRole": "текущая роль если упоминается",
  "goals": ["цель1", "цель2"],
  "isUncertain": true/false
}`, cur, chat.Format(chat.Tail(history, 5)), message)

	raw, err := d.gen.Generate(ctx, prompt, engine.Options{Temperature: detectTemperature, JSONMode: true})
	if err != nil {
		d.logger.Warn("persona detection failed", "error", err)
		return Persona{}
	}
	r, err := engine.ParseJSON(raw)
	if err != nil {
		d.logger.Warn("persona detection returned malformed JSON", "error", err)
		return Persona{}
	}
	return deltaFrom(r, current)
}

// deltaFrom reads the detector output. Models tend to echo the current
// profile back, so list entries already present are not repeated.
func deltaFrom(r gjson.Result, current Persona) Persona {
	var d Persona
	d.Experience = cleanScalar(r.Get("experience").String())
	d.CurrentRole = cleanScalar(r.Get("currentRole").String())
	d.Interests = newEntries(current.Interests, engine.Strings(r.Get("interests")))
	d.Goals = newEntries(current.Goals, engine.Strings(r.Get("goals")))
	d.Skills = newEntries(current.Skills, engine.Strings(r.Get("skills")))

	if u := r.Get("isUncertain"); u.Exists() && u.Type != gjson.Null {
		v := u.Bool()
		if u.Type == gjson.String {
			v = strings.EqualFold(strings.TrimSpace(u.Str), "true")
		}
		d.IsUncertain = &v
	}
	return d
}

// cleanScalar drops template placeholders the model copies from the prompt.
func cleanScalar(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") && strings.Contains(s, "junior") {
		return ""
	}
	if strings.Contains(s, "если упоминается") {
		return ""
	}
	return s
}

func newEntries(existing, candidates []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[strings.ToLower(e)] = true
	}
	var out []string
	for _, c := range candidates {
		if !seen[strings.ToLower(c)] {
			out = append(out, c)
		}
	}
	return out
}
