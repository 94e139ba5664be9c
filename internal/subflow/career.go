package subflow

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/careervibe/internal/market"
)

const (
	careerPageSize     = 5
	careerRequirements = 3
)

var careerLevels = []string{"junior", "middle", "senior"}

// CareerLevel is one rung of a career ladder.
type CareerLevel struct {
	Level            string   `json:"level"`
	Duration         string   `json:"duration"`
	Skills           []string `json:"skills"`
	Responsibilities string   `json:"responsibilities"`
	Salary           string   `json:"salary"`
	Tips             string   `json:"tips"`
}

// Career describes progression in a profession.
type Career struct {
	Content      string        `json:"content"`
	Levels       []CareerLevel `json:"levels"`
	NextSteps    string        `json:"nextSteps"`
	MarketDemand string        `json:"marketDemand"`
}

// CareerContext narrows the market lookups.
type CareerContext struct {
	Location       string
	Specialization string
}

// levelMarket is what the market says about one seniority level.
type levelMarket struct {
	level        string
	ok           bool
	count        int
	salaries     []market.Salary
	requirements []string
}

// ShowCareer describes the career path for profession. The three level
// lookups run concurrently.
func (f *Flows) ShowCareer(ctx context.Context, profession, currentLevel string, cc CareerContext) Career {
	data := make([]levelMarket, len(careerLevels))
	g, gctx := errgroup.WithContext(ctx)
	for i, lvl := range careerLevels {
		g.Go(func() error {
			query := strings.TrimSpace(profession + " " + lvl + " " + cc.Specialization)
			data[i] = levelMarket{level: lvl}
			res, ok := f.search(gctx, query, careerPageSize)
			if !ok {
				return nil
			}
			lm := levelMarket{level: lvl, ok: true, count: res.TotalCount}
			for _, it := range res.Items {
				if it.Salary != nil {
					lm.salaries = append(lm.salaries, *it.Salary)
				}
			}
			lm.requirements = snippets(res.Items, careerRequirements, func(l market.Listing) string { return l.Requirement })
			data[i] = lm
			return nil
		})
	}
	_ = g.Wait()

	current := ""
	if currentLevel != "" {
		current = fmt.Sprintf(" (текущий уровень: %s)", currentLevel)
	}

	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Опиши детальный карьерный путь для профессии "%s"%s.

Контекст:
%s
Реальные данные с HeadHunter:
%s

На основе этих реальных данных создай подробное описание карьерного роста с конкретными примерами и советами.

Формат JSON:
{
  "content": "Общее описание карьерного пути (2-3 предложения)",
  "levels": [
    {
      "level": "Junior",
      "duration": "1-2 года",
      "skills": ["навык1", "навык2"],
      "responsibilities": "Что делает на этом уровне",
      "salary": "диапазон зарплаты (используй данные из HH если есть)",
      "tips": "Советы для перехода на следующий уровень"
    }
  ],
  "nextSteps": "Что делать для карьерного роста (если указан текущий уровень)",
  "marketDemand": "Краткий анализ спроса на рынке (на основе количества вакансий из HH)"
}
Опиши уровни Junior, Middle, Senior и Lead/Principal.`, profession, current,
		optLine("Локация", cc.Location)+optLine("Специализация", cc.Specialization), marketLines(data))

	var out Career
	if !f.askJSON(ctx, "career", prompt, 0.6, &out) {
		return Career{Content: fmt.Sprintf("Карьерный путь для %s обычно включает несколько уровней роста.", profession)}
	}
	out.Content = orDefault(out.Content, fmt.Sprintf("Карьерный путь для %s:", profession))
	return out
}

func marketLines(data []levelMarket) string {
	var lines []string
	for _, d := range data {
		if !d.ok {
			continue
		}
		title := strings.ToUpper(d.level[:1]) + d.level[1:]
		if d.count == 0 {
			lines = append(lines, fmt.Sprintf("- %s: данных нет", d.level))
			continue
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "- %s:\n  * Вакансий найдено: %d", title, d.count)
		if avg := roughAverage(d.salaries); avg > 0 {
			fmt.Fprintf(&sb, "\n  * Средняя зарплата: ~%d руб.", avg)
		}
		if len(d.requirements) > 0 {
			reqs := d.requirements
			if len(reqs) > 2 {
				reqs = reqs[:2]
			}
			fmt.Fprintf(&sb, "\n  * Типичные требования:\n    - %s", strings.Join(reqs, "\n    - "))
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}

// roughAverage averages the lower bound (or upper when absent) of every
// advertised salary, whatever the currency.
func roughAverage(ss []market.Salary) int {
	if len(ss) == 0 {
		return 0
	}
	sum := 0
	for _, s := range ss {
		switch {
		case s.From != nil && *s.From > 0:
			sum += *s.From
		case s.To != nil:
			sum += *s.To
		}
	}
	return int(float64(sum)/float64(len(ss)) + 0.5)
}

// Text renders the career path.
func (c Career) Text() string {
	var sb strings.Builder
	sb.WriteString(c.Content)
	sb.WriteString("\n\n")
	if len(c.Levels) > 0 {
		sb.WriteString("📈 **Уровни карьерного роста:**\n\n")
		for _, l := range c.Levels {
			fmt.Fprintf(&sb, "**%s** (%s)\n", l.Level, l.Duration)
			fmt.Fprintf(&sb, "💼 Обязанности: %s\n", l.Responsibilities)
			fmt.Fprintf(&sb, "💰 Зарплата: %s\n", l.Salary)
			if l.Tips != "" {
				fmt.Fprintf(&sb, "💡 Советы: %s\n", l.Tips)
			}
			sb.WriteString("\n")
		}
	}
	if c.NextSteps != "" {
		fmt.Fprintf(&sb, "🎯 **Следующие шаги:** %s\n\n", c.NextSteps)
	}
	if c.MarketDemand != "" {
		fmt.Fprintf(&sb, "📊 **Спрос на рынке:** %s", c.MarketDemand)
	}
	return sb.String()
}
