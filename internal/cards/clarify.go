package cards

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kalambet/careervibe/internal/engine"
)

// Question is a clarifying prompt shown to the user, optionally with answer
// buttons.
type Question struct {
	Content string   `json:"content"`
	Buttons []string `json:"buttons"`
}

// Turn is one history entry fed into description extraction.
type Turn struct {
	Role    string
	Content string
}

// ClarificationQuestion asks what the user means by an ambiguous profession
// name. It never fails; the generator error degrades to a static question.
func ClarificationQuestion(ctx context.Context, gen engine.Generator, profession string) Question {
	prompt := fmt.Sprintf(`Пользователь хочет узнать о профессии "%s". Это название может означать разные вещи.
Сформулируй короткий дружелюбный вопрос (1-2 предложения, можно с эмодзи), чтобы уточнить, что именно пользователь имеет в виду под этой профессией: сферу, задачи, контекст работы.
Предложи 3-4 коротких варианта ответа.

Ответь ТОЛЬКО в формате JSON:
{"content": "...", "buttons": ["...", "..."]}`, profession)

	var q Question
	if err := engine.GenerateJSON(ctx, gen, prompt, 0.7, &q); err != nil || strings.TrimSpace(q.Content) == "" {
		if err != nil {
			slog.Warn("clarification question failed, using fallback", "profession", profession, "error", err)
		}
		return Question{
			Content: fmt.Sprintf(`Расскажи подробнее, что ты имеешь в виду под профессией "%s"? Чем бы ты хотел заниматься? 🤔`, profession),
		}
	}
	return q
}

// ExtractDescription condenses the user's answer into a short description of
// the profession as they understand it. Falls back to the raw answer.
func ExtractDescription(ctx context.Context, gen engine.Generator, profession, answer string, history []Turn) string {
	var sb strings.Builder
	start := 0
	if len(history) > 5 {
		start = len(history) - 5
	}
	for _, t := range history[start:] {
		fmt.Fprintf(&sb, "%s: %s\n", t.Role, t.Content)
	}

	prompt := fmt.Sprintf(`Пользователь уточнил, что он понимает под профессией "%s".

История диалога:
%s
Ответ пользователя: "%s"

Опиши одним-двумя предложениями, какую именно работу имеет в виду пользователь. Не добавляй ничего от себя.
Ответь ТОЛЬКО в формате JSON: {"description": "..."}`, profession, sb.String(), answer)

	var out struct {
		Description string `json:"description"`
	}
	if err := engine.GenerateJSON(ctx, gen, prompt, 0.3, &out); err != nil {
		slog.Warn("description extraction failed, using raw answer", "profession", profession, "error", err)
		return strings.TrimSpace(answer)
	}
	if d := strings.TrimSpace(out.Description); d != "" {
		return d
	}
	return strings.TrimSpace(answer)
}
