package subflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalambet/careervibe/internal/market"
)

const (
	tasksPageSize = 10
	tasksSnippets = 5
)

// TaskContext describes the card the tasks are for.
type TaskContext struct {
	Level          string
	Company        string
	Location       string
	Specialization string
}

// Tasks lists typical work items for a profession.
type Tasks struct {
	Content string
	Tasks   []string
}

var fallbackTasks = []string{
	"Работа над текущими проектами",
	"Общение с коллегами и командой",
	"Решение технических задач",
	"Участие в встречах и планировании",
}

// ShowTasks describes typical tasks, grounded on responsibility snippets
// from live listings when the market answers.
func (f *Flows) ShowTasks(ctx context.Context, profession string, tc TaskContext) Tasks {
	query := strings.TrimSpace(profession + " " + tc.Specialization)

	var duties []string
	if res, ok := f.search(ctx, query, tasksPageSize); ok {
		duties = snippets(res.Items, tasksSnippets, func(l market.Listing) string { return l.Responsibility })
	}

	levelSuffix, levelParen := "", ""
	if tc.Level != "" {
		levelSuffix = " уровня " + tc.Level
		levelParen = " (" + tc.Level + ")"
	}
	ctxLines := optLine("Уровень", tc.Level) + optLine("Компания", tc.Company) +
		optLine("Локация", tc.Location) + optLine("Специализация", tc.Specialization)

	basis := "На основе твоих знаний"
	if len(duties) > 0 {
		basis = "Реальные обязанности из вакансий на HeadHunter:\n" + numbered(duties) + "\n\nНа основе этих данных"
	}

	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Опиши типичные задачи для профессии "%s"%s.

Контекст:
%s
%s создай 5-7 конкретных примеров задач, которые выполняет этот специалист в течение дня/недели.
Задачи должны быть:
- Реалистичными и актуальными
- Конкретными (не общими фразами)
- Соответствующими уровню опыта%s

Формат JSON:
{
  "content": "Краткое введение (1 предложение)",
  "tasks": ["Задача 1 - конкретное описание", "Задача 2 - конкретное описание", "..."]
}

Пример для Frontend-разработчика (Middle):
{
  "content": "Вот типичные задачи Frontend-разработчика уровня Middle в течение рабочей недели:",
  "tasks": [
    "Реализовать адаптивную форму регистрации с валидацией полей",
    "Оптимизировать загрузку изображений для улучшения производительности сайта",
    "Провести код-ревью Pull Request коллеги",
    "Исправить баг с отображением модального окна на мобильных устройствах",
    "Интегрировать новый API для получения данных профиля пользователя"
  ]
}`, profession, levelSuffix, ctxLines, basis, levelParen)

	var out struct {
		Content string   `json:"content"`
		Tasks   []string `json:"tasks"`
	}
	if !f.askJSON(ctx, "tasks", prompt, 0.7, &out) {
		return Tasks{
			Content: fmt.Sprintf("Типичные задачи для %s:", profession),
			Tasks:   append([]string(nil), fallbackTasks...),
		}
	}
	return Tasks{
		Content: orDefault(out.Content, fmt.Sprintf("Типичные задачи для %s:", profession)),
		Tasks:   out.Tasks,
	}
}

// Text renders the tasks as a numbered list.
func (t Tasks) Text() string {
	if len(t.Tasks) == 0 {
		return t.Content + "\n\n"
	}
	return t.Content + "\n\n" + numbered(t.Tasks) + "\n"
}

// snippets returns the non-empty field values of the first n listings.
func snippets(items []market.Listing, n int, field func(market.Listing) string) []string {
	if len(items) > n {
		items = items[:n]
	}
	var out []string
	for _, it := range items {
		if s := strings.TrimSpace(field(it)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func numbered(lines []string) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, l)
	}
	return sb.String()
}
