package subflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/chat"
	"github.com/kalambet/careervibe/internal/engine"
	"github.com/kalambet/careervibe/internal/persona"
)

// UncertainFlowSteps is the number of soft questions asked before a
// profession is picked.
const UncertainFlowSteps = 7

// Soft question types. Answers are stored on the persona by type.
const (
	QuestionInterests = "interests"
	QuestionWorkStyle = "work_style"
	QuestionValues    = "values"
	QuestionSkills    = "skills"
	QuestionGeneral   = "general"
)

// SoftQuestion is one step of the guided flow for users who do not know
// what they want.
type SoftQuestion struct {
	Content      string
	Buttons      []string
	IsFreeForm   bool
	QuestionType string
}

var softFallbacks = []SoftQuestion{
	{Content: "Расскажи, что тебя заводит в жизни? 🌟", IsFreeForm: true, QuestionType: QuestionInterests},
	{
		Content:      "Что тебе важнее в работе?",
		Buttons:      []string{"💰 Стабильность", "🚀 Драйв", "🎯 Смысл", "🌟 Творчество"},
		QuestionType: QuestionValues,
	},
}

// SoftQuestion generates the question for step (0-based). Questions
// already asked in history are listed so the model does not repeat them.
func (f *Flows) SoftQuestion(ctx context.Context, step int, history []chat.Message, p persona.Persona) SoftQuestion {
	var asked []string
	for _, m := range history {
		if m.Role == chat.RoleAssistant && m.Metadata.Bool("uncertainFlow") {
			asked = append(asked, m.Content)
		}
	}
	askedText := "Вопросов еще не было"
	if len(asked) > 0 {
		lines := make([]string, len(asked))
		for i, q := range asked {
			lines[i] = fmt.Sprintf("%d. %s", i+1, q)
		}
		askedText = strings.Join(lines, "\n")
	}

	prompt := fmt.Sprintf(`Ты дружелюбный AI-ассистент для карьерного консультирования. Твоя задача - помочь пользователю выбрать профессию через серию интересных и душевных вопросов.

Контекст пользователя:
%[1]s

История диалога:
%[2]s

Уже заданные вопросы:
%[3]s

ВАЖНО:
1. Задавай вопросы с вайбом - будь дружелюбным, теплым, иногда можно использовать эмодзи
2. Задай ВСЕГО 5-7 вопросов за весь процесс
3. Чередуй вопросы с кнопками и вопросы со свободной формой ответа
4. Вопросы должны быть разными по типу:
   - О интересах и увлечениях
   - О стиле работы (команда/самостоятельно)
   - О ценностях в работе
   - О жизненной ситуации
   - О том, что вдохновляет
   - О навыках и опыте
5. Некоторые вопросы должны быть с кнопками (для быстрого ответа)
6. Некоторые вопросы должны быть со свободной формой (чтобы пользователь мог рассказать больше)

Текущий шаг: %[4]d из 5-7

Сгенерируй ОДИН вопрос для текущего шага.

Формат JSON:
{
  "content": "Текст вопроса с вайбом (можно использовать эмодзи)",
  "buttons": ["Вариант 1", "Вариант 2", "Вариант 3"] - только если нужны кнопки,
  "isFreeForm": true/false - true если свободная форма ответа,
  "questionType": "тип вопроса (interests/work_style/values/situation/inspiration/skills)"
}

Примеры хороших вопросов:
- "Расскажи, что тебя заводит в жизни? Может быть, это спорт, музыка, создание чего-то нового, или что-то совсем другое? 🌟" (свободная форма)
- "Представь свой идеальный рабочий день. Что бы ты делал?" (свободная форма)
- "Что тебе важнее в работе?" (с кнопками: ["💰 Стабильность", "🚀 Драйв", "🎯 Смысл", "🌟 Творчество"])
- "Ты больше любишь работать в команде или сам по себе?" (с кнопками)
- "Какие навыки у тебя уже есть или что ты хочешь развивать?" (свободная форма)

Сгенерируй вопрос для шага %[4]d:`, toJSON(p), chat.Format(chat.Tail(history, 10)), askedText, step+1)

	r, err := f.generateRaw(ctx, "soft_question", prompt, 0.8)
	if err != nil {
		fb := softFallbacks[step%len(softFallbacks)]
		fb.Buttons = append([]string(nil), fb.Buttons...)
		return fb
	}

	q := SoftQuestion{
		Content:      orDefault(r.Get("content").String(), "Расскажи, что тебя интересует?"),
		Buttons:      engine.Strings(r.Get("buttons")),
		IsFreeForm:   r.Get("isFreeForm").Bool(),
		QuestionType: orDefault(strings.TrimSpace(r.Get("questionType").String()), QuestionGeneral),
	}
	if len(q.Buttons) == 0 && !q.IsFreeForm {
		q.Buttons = []string{"Вариант 1", "Вариант 2", "Вариант 3"}
	}
	return q
}

// Pick is the profession chosen at the end of the soft-question flow.
type Pick struct {
	Profession string
	Reasoning  string
	Confidence float64
	Source     string
	Slug       string
}

// DetermineFinalProfession picks one profession from the whole
// conversation, preferring catalog entries.
func (f *Flows) DetermineFinalProfession(ctx context.Context, p persona.Persona, history []chat.Message) Pick {
	catalog := f.listCatalog()
	catalogText := "Нет готовых карточек"
	if len(catalog) > 0 {
		catalogText = catalogLines(catalog, false)
	}

	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. На основе всего диалога определи ОДНУ профессию, которая лучше всего подходит пользователю.

Профиль пользователя:
%s

Полная история диалога:
%s

Доступные готовые карточки профессий:
%s

ВАЖНО:
1. Выбери ТОЛЬКО ОДНУ профессию (не список!)
2. Если есть подходящая профессия из готовых карточек - выбери её
3. Если нет подходящей из готовых - предложи профессию из реального рынка (название должно быть конкретным и реалистичным)
4. Профессия должна максимально соответствовать всем ответам пользователя
5. Объясни, почему выбрана именно эта профессия

Формат JSON:
{
  "profession": "точное название профессии",
  "reasoning": "подробное объяснение почему выбрана эта профессия (3-4 предложения)",
  "confidence": 0.0-1.0,
  "source": "existing" или "hh",
  "slug": "slug если source=existing, иначе null"
}`, toJSON(p), chat.Format(chat.Tail(history, 20)), catalogText)

	const (
		defaultProfession = "Разработчик"
		defaultReasoning  = "На основе твоих ответов подобрана эта профессия"
	)
	r, err := f.generateRaw(ctx, "final_profession", prompt, 0.6)
	if err != nil {
		return Pick{Profession: defaultProfession, Reasoning: defaultReasoning, Confidence: 0.5}
	}
	confidence := r.Get("confidence").Float()
	if confidence <= 0 {
		confidence = 0.7
	}
	return Pick{
		Profession: orDefault(strings.TrimSpace(r.Get("profession").String()), defaultProfession),
		Reasoning:  orDefault(r.Get("reasoning").String(), defaultReasoning),
		Confidence: min(confidence, 1),
		Source:     r.Get("source").String(),
		Slug:       r.Get("slug").String(),
	}
}

// FindOrGenerate resolves pick to a card ref: the catalog entry it names,
// then a stored card by slug, then a freshly generated and stored card. If
// generation fails the ref is virtual.
func (f *Flows) FindOrGenerate(ctx context.Context, pick Pick) cards.Ref {
	if pick.Source == "existing" && pick.Slug != "" {
		if r, ok := cards.FindSlug(f.listCatalog(), pick.Slug); ok {
			return r
		}
	}

	slug := cards.Slug(pick.Profession)
	if f.store == nil {
		return cards.VirtualRef(pick.Profession, "Middle", DefaultCompany)
	}
	if c, err := f.store.Get(slug); err == nil {
		return c.Ref()
	}

	f.logger.Info("profession not found, generating", "profession", pick.Profession)
	c, err := f.store.Generate(ctx, pick.Profession, persona.ExperienceMiddle, DefaultCompany, cards.Options{})
	if err != nil {
		f.logger.Warn("card generation failed, returning virtual card", "profession", pick.Profession, "error", err)
		return cards.VirtualRef(pick.Profession, "Middle", DefaultCompany)
	}
	if err := f.store.Put(c.Slug, c); err != nil {
		f.logger.Warn("storing generated card failed", "slug", c.Slug, "error", err)
	}
	return c.Ref()
}
