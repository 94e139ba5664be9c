package subflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/chat"
	"github.com/kalambet/careervibe/internal/intent"
	"github.com/kalambet/careervibe/internal/market"
	"github.com/kalambet/careervibe/internal/persona"
)

const (
	suggestMarketLimit = 30
	suggestMaxCards    = 5
	suggestHistory     = 10
)

var defaultKeywords = []string{"разработка", "менеджмент", "дизайн", "аналитика"}

// ClarifyingQuestions asks 2-3 questions to narrow down what the user wants.
// The focus depends on whether the user is marked uncertain.
func (f *Flows) ClarifyingQuestions(ctx context.Context, res intent.Result, p persona.Persona) cards.Question {
	names := make([]string, 0)
	for _, r := range f.listCatalog() {
		names = append(names, r.Profession)
	}

	focus := `ВАЖНО: Пользователь ищет конкретную профессию или направление. Уточни:
- Уровень опыта
- Предпочитаемую сферу
- Что важно в работе`
	if p.Uncertain() {
		focus = `ВАЖНО: Пользователь не знает, чего хочет. Задай вопросы, которые помогут определить:
- Его интересы и хобби
- Что ему нравится делать
- Какие навыки у него есть
- Что для него важно в работе (стабильность, творчество, деньги, помощь людям и т.д.)`
	}

	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Сгенерируй 2-3 уточняющих вопроса для пользователя.

Намерение: %s
Извлеченная информация: %s
Профиль пользователя: %s

Доступные профессии: %s

%s

Ответь ТОЛЬКО в формате JSON:
{
  "content": "текст вопроса",
  "buttons": ["вариант 1", "вариант 2", "вариант 3"]
}

Кнопки должны быть короткими (2-4 слова) и конкретными.`,
		res.Intent, toJSON(res.Extracted), toJSON(p), strings.Join(names, ", "), focus)

	fallback := cards.Question{
		Content: "Расскажи подробнее о том, что тебя интересует?",
		Buttons: []string{"Разработка", "Дизайн", "Менеджмент", "Не уверен"},
	}
	var out cards.Question
	if !f.askJSON(ctx, "clarifying_questions", prompt, 0.7, &out) {
		return fallback
	}
	out.Content = orDefault(out.Content, fallback.Content)
	if len(out.Buttons) == 0 {
		out.Buttons = fallback.Buttons
	}
	return out
}

// SuggestForUncertain proposes up to five professions from the user's
// answers so far. The LLM first derives search keywords, the market turns
// them into real titles, then the LLM picks among those and the catalog.
func (f *Flows) SuggestForUncertain(ctx context.Context, p persona.Persona, history []chat.Message) CardList {
	conversation := chat.Format(chat.Tail(history, suggestHistory))
	profile := toJSON(p)

	keywordsPrompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Проанализируй диалог с пользователем и определи, какие профессии могут ему подойти.

Профиль пользователя: %s

История диалога:
%s

На основе интересов, навыков и предпочтений пользователя, сгенерируй 5-7 ключевых слов для поиска профессий в базе вакансий (например: "разработка", "дизайн", "продажи", "менеджмент", "аналитика" и т.д.).

Ключевые слова должны быть:
- Конкретными и релевантными интересам пользователя
- На русском языке
- Подходящими для поиска вакансий

Ответь ТОЛЬКО в формате JSON:
{
  "keywords": ["ключевое слово 1", "ключевое слово 2", ...],
  "reasoning": "короткое объяснение почему выбраны эти направления"
}`, profile, conversation)

	var kw struct {
		Keywords  []string `json:"keywords"`
		Reasoning string   `json:"reasoning"`
	}
	keywords := defaultKeywords
	if f.askJSON(ctx, "suggest_keywords", keywordsPrompt, 0.7, &kw) && len(kw.Keywords) > 0 {
		keywords = kw.Keywords
		f.logger.Debug("suggestion keywords", "keywords", keywords, "reasoning", kw.Reasoning)
	}

	var mined []market.Candidate
	if f.market != nil {
		mined = f.market.FetchProfessions(ctx, keywords, suggestMarketLimit)
	}
	catalog := f.listCatalog()

	selectionPrompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Из списка профессий выбери 3-5 наиболее подходящих для пользователя.

Профиль пользователя: %s

История диалога:
%s

Доступные профессии из HeadHunter (актуальные вакансии):
%s

Существующие готовые карточки профессий:
%s

ВАЖНО:
1. Приоритетно выбирай профессии из "Существующих готовых карточек", так как для них уже есть детальная информация
2. Если в готовых карточках нет подходящих вариантов, выбирай из списка HH
3. Выбирай профессии, которые реально соответствуют интересам и навыкам пользователя
4. Учитывай количество вакансий - больше вакансий = больше возможностей

Ответь ТОЛЬКО в формате JSON:
{
  "content": "короткое персональное объяснение (2-3 предложения) почему эти профессии подходят",
  "selectedProfessions": [
    {
      "name": "название профессии",
      "source": "existing" или "hh",
      "slug": "slug если source=existing, иначе null",
      "reason": "почему эта профессия подходит (1 предложение)"
    }
  ]
}`, profile, conversation, candidateLines(mined), catalogLines(catalog, false))

	const defaultContent = "Вот несколько интересных профессий для тебя:"
	var out struct {
		Content  string      `json:"content"`
		Selected []selection `json:"selectedProfessions"`
	}
	if !f.askJSON(ctx, "suggest_selection", selectionPrompt, 0.6, &out) {
		return CardList{Content: defaultContent, Cards: firstN(catalog, 3)}
	}

	refs := resolveSelections(out.Selected, catalog, "Middle")
	if len(refs) > suggestMaxCards {
		refs = refs[:suggestMaxCards]
	}
	f.logger.Info("professions suggested", "count", len(refs))
	return CardList{Content: orDefault(out.Content, defaultContent), Cards: refs}
}

// toJSON renders v for embedding into a prompt.
func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
