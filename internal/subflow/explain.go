package subflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kalambet/careervibe/internal/engine"
)

// Impact describes the value a profession brings.
type Impact struct {
	Content    string
	Direct     string
	Indirect   string
	Examples   []string
	Importance string
}

// ShowImpact explains why profession matters.
func (f *Flows) ShowImpact(ctx context.Context, profession string) Impact {
	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Опиши влияние и ценность профессии "%s".

Покажи:
- Какую конкретную пользу приносит специалист
- Как его работа влияет на продукт/компанию
- Реальные примеры влияния (с цифрами если возможно)
- Почему эта профессия важна

Формат JSON:
{
  "content": "Эмоциональное описание влияния (2-3 предложения)",
  "impact": {
    "direct": "прямое влияние на продукт",
    "indirect": "косвенное влияние на компанию",
    "examples": ["пример 1 с цифрами", "пример 2"],
    "importance": "почему это важно"
  }
}

Пример для Data Scientist:
"Ты как Data Scientist сокращаешь время аналитики на 40%% — это помогает компании экономить 1 млн рублей в год и принимать решения в 3 раза быстрее."`, profession)

	r, err := f.generateRaw(ctx, "impact", prompt, 0.6)
	if err != nil {
		return Impact{Content: fmt.Sprintf("Профессия %s играет важную роль!", profession)}
	}
	im := r.Get("impact")
	return Impact{
		Content:    orDefault(r.Get("content").String(), fmt.Sprintf("Профессия %s важна и приносит реальную пользу!", profession)),
		Direct:     im.Get("direct").String(),
		Indirect:   im.Get("indirect").String(),
		Examples:   engine.Strings(im.Get("examples")),
		Importance: im.Get("importance").String(),
	}
}

// Text renders the impact for profession.
func (im Impact) Text(profession string) string {
	var sb strings.Builder
	sb.WriteString(im.Content)
	sb.WriteString("\n\n")
	if im.Direct == "" && im.Indirect == "" && len(im.Examples) == 0 && im.Importance == "" {
		return sb.String()
	}
	fmt.Fprintf(&sb, "💡 **Влияние %s:**\n\n", profession)
	if im.Direct != "" {
		fmt.Fprintf(&sb, "🎯 Прямое влияние: %s\n\n", im.Direct)
	}
	if im.Indirect != "" {
		fmt.Fprintf(&sb, "🌊 Косвенное влияние: %s\n\n", im.Indirect)
	}
	if len(im.Examples) > 0 {
		sb.WriteString("📊 Примеры:\n")
		for _, ex := range im.Examples {
			fmt.Fprintf(&sb, "• %s\n", ex)
		}
		sb.WriteString("\n")
	}
	if im.Importance != "" {
		fmt.Fprintf(&sb, "⭐ Почему это важно: %s", im.Importance)
	}
	return sb.String()
}

// LevelRow is one criterion of a level comparison.
type LevelRow struct {
	Label  string
	Lower  string
	Higher string
}

// LevelComparison contrasts two seniority levels of one profession.
type LevelComparison struct {
	Lower, Higher string
	Content       string
	Rows          []LevelRow
}

var levelCriteria = []struct{ key, label string }{
	{"experience", "📚 Опыт"},
	{"responsibilities", "💼 Обязанности"},
	{"skills", "🎯 Навыки"},
	{"autonomy", "🚀 Самостоятельность"},
	{"impact", "💡 Влияние"},
	{"salary", "💰 Зарплата"},
}

// ExplainLevels compares two levels of profession, Junior and Senior by
// default.
func (f *Flows) ExplainLevels(ctx context.Context, profession string, levels []string) LevelComparison {
	lc := LevelComparison{Lower: "Junior", Higher: "Senior"}
	if len(levels) > 0 && strings.TrimSpace(levels[0]) != "" {
		lc.Lower = levels[0]
	}
	if len(levels) > 1 && strings.TrimSpace(levels[1]) != "" {
		lc.Higher = levels[1]
	}

	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Объясни разницу между уровнями %[1]s и %[2]s для профессии "%[3]s".

Создай детальное сравнение по ключевым критериям.

Формат JSON:
{
  "content": "Краткое резюме главных различий (2-3 предложения)",
  "comparison": {
    "experience": {"%[1]s": "описание опыта", "%[2]s": "описание опыта"},
    "responsibilities": {"%[1]s": "описание обязанностей", "%[2]s": "описание обязанностей"},
    "skills": {"%[1]s": ["навык1", "навык2"], "%[2]s": ["навык1", "навык2"]},
    "autonomy": {"%[1]s": "уровень самостоятельности", "%[2]s": "уровень самостоятельности"},
    "impact": {"%[1]s": "влияние на проект/команду", "%[2]s": "влияние на проект/команду"},
    "salary": {"%[1]s": "диапазон", "%[2]s": "диапазон"}
  }
}`, lc.Lower, lc.Higher, profession)

	r, err := f.generateRaw(ctx, "explain_levels", prompt, 0.5)
	if err != nil {
		lc.Content = fmt.Sprintf("%s отличается от %s более высоким уровнем ответственности, опыта и влияния на проект.", lc.Higher, lc.Lower)
		return lc
	}

	lc.Content = orDefault(r.Get("content").String(), fmt.Sprintf("Вот главные различия между %s и %s:", lc.Lower, lc.Higher))
	c := r.Get("comparison")
	for _, k := range levelCriteria {
		row := c.Get(k.key)
		if !row.Exists() {
			continue
		}
		lc.Rows = append(lc.Rows, LevelRow{
			Label:  k.label,
			Lower:  joined(row.Get(gjson.Escape(lc.Lower))),
			Higher: joined(row.Get(gjson.Escape(lc.Higher))),
		})
	}
	return lc
}

// Text renders the level comparison.
func (lc LevelComparison) Text() string {
	var sb strings.Builder
	sb.WriteString(lc.Content)
	sb.WriteString("\n\n")
	if len(lc.Rows) == 0 {
		return sb.String()
	}
	fmt.Fprintf(&sb, "📊 **Сравнение %s vs %s:**\n\n", lc.Lower, lc.Higher)
	for _, row := range lc.Rows {
		fmt.Fprintf(&sb, "%s:\n", row.Label)
		fmt.Fprintf(&sb, "• %s: %s\n", lc.Lower, row.Lower)
		fmt.Fprintf(&sb, "• %s: %s\n\n", lc.Higher, row.Higher)
	}
	return sb.String()
}

func joined(r gjson.Result) string {
	return strings.Join(engine.Strings(r), ", ")
}
