package subflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/engine"
	"github.com/kalambet/careervibe/internal/persona"
	"github.com/tidwall/gjson"
)

const questionTemperature = 0.8

const noExperience = "Без опыта"

// questionRules is shared by every profession-flavoured clarification prompt.
const questionRules = `1. Вопрос должен передавать ВАЙБ профессии "%[1]s" - используй профессиональный сленг, специфичные термины
2. Вопрос должен звучать как живой диалог, а не формальный опрос
3. Можно использовать эмодзи, но не переборщи (максимум 1-2 эмодзи)`

// gjsonDoc is the raw model answer; ok is false when the call failed.
type gjsonDoc struct {
	r  gjson.Result
	ok bool
}

// vibeQuestion asks for a {content, buttons} document. Missing fields take
// the fallback's values; a failed call returns the fallback unchanged.
func (f *Flows) vibeQuestion(ctx context.Context, op, prompt string, fallback cards.Question) (cards.Question, gjsonDoc) {
	r, err := f.generateRaw(ctx, op, prompt, questionTemperature)
	if err != nil {
		return fallback, gjsonDoc{}
	}
	q := cards.Question{
		Content: orDefault(r.Get("content").String(), fallback.Content),
		Buttons: engine.Strings(r.Get("buttons")),
	}
	if len(q.Buttons) == 0 {
		q.Buttons = fallback.Buttons
	}
	return q, gjsonDoc{r: r, ok: true}
}

// LevelQuestion asks about experience. "Без опыта" is always the first
// button.
func (f *Flows) LevelQuestion(ctx context.Context, profession string) cards.Question {
	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Для профессии "%[1]s" создай ЯРКИЙ и ИНТЕРЕСНЫЙ вопрос об уровне опыта с релевантными вариантами ответов.

ВАЖНО:
`+questionRules+`
4. ПЕРВЫМ вариантом ВСЕГДА должна быть кнопка "Без опыта" (большинство пользователей без опыта)
5. После этого для IT-профессий: Джун, Мидл, Сеньор
6. Для рабочих профессий: Начинающий, Опытный, Мастер
7. Для творческих профессий: Начинающий, С опытом, Профессионал
8. Для других: адаптируй под профессию, но "Без опыта" ВСЕГДА первая

Примеры ХОРОШИХ вопросов:
- Для "Футбольный судья": "Какой у тебя опыт судейства? Уже свистел на матчах или только мечтаешь начать? ⚽"
- Для "Frontend-разработчик": "На каком ты уровне во фронтенде? Только начинаешь путь или уже гоняешь на React как на болиде? 💻"
- Для "Бариста": "Какой у тебя опыт в кофе? Впервые за эспрессо-машиной или уже варишь идеальный латте? ☕"

Формат JSON:
{
  "content": "Яркий вопрос об опыте с вайбом профессии",
  "buttons": ["Без опыта", "Вариант 2", "Вариант 3", "Вариант 4"]
}

Создай вопрос для профессии "%[1]s":`, profession)

	q, doc := f.vibeQuestion(ctx, "level_question", prompt, cards.Question{
		Content: "Какой у тебя уровень опыта?",
		Buttons: []string{noExperience, "Начинающий", "С опытом", "Опытный", "Мастер"},
	})
	if doc.ok && len(engine.Strings(doc.r.Get("buttons"))) == 0 {
		q.Buttons = []string{noExperience, "Студент", "Джун (Junior)", "Мидл (Middle)", "Сеньор (Senior)"}
	}
	q.Buttons = noExperienceFirst(q.Buttons)
	return q
}

// noExperienceFirst moves the "no experience" button to the front, adding it
// when absent.
func noExperienceFirst(buttons []string) []string {
	for i, b := range buttons {
		if !strings.Contains(strings.ToLower(b), "без опыта") {
			continue
		}
		if i == 0 {
			return buttons
		}
		out := make([]string, 0, len(buttons))
		out = append(out, b)
		out = append(out, buttons[:i]...)
		return append(out, buttons[i+1:]...)
	}
	return append([]string{noExperience}, buttons...)
}

// WorkFormatQuestion asks about office versus remote work. It reports false
// when the profession needs physical presence, or when the check fails.
func (f *Flows) WorkFormatQuestion(ctx context.Context, profession string) (cards.Question, bool) {
	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Для профессии "%[1]s" определи, нужно ли спрашивать о формате работы (офис/удаленка).

ВАЖНО:
- Если профессия требует ФИЗИЧЕСКОГО ПРИСУТСТВИЯ (строитель, водитель, повар, массажист, специалист по канализации и т.д.) - верни null
- Если профессия может быть удаленной (IT, дизайн, маркетинг, аналитика) - создай ЯРКИЙ вопрос с вайбом профессии "%[1]s"

Если вопрос релевантен:
`+questionRules+`

Примеры ХОРОШИХ вопросов:
- Для "Frontend-разработчик": "Как ты видишь свой рабочий день? В уютном офисе с коллегами или на диване с ноутбуком? 🏠💻"
- Для "Дизайнер": "Где тебе комфортнее творить? В студии с командой или дома в спокойной обстановке? 🎨"

Формат JSON:
{
  "isRelevant": true/false,
  "content": "Яркий вопрос о формате работы с вайбом профессии (если isRelevant=true)",
  "buttons": ["Офис", "Удалёнка", "Гибрид", "Не важно"] (если isRelevant=true)
}`, profession)

	q, doc := f.vibeQuestion(ctx, "work_format_question", prompt, cards.Question{
		Content: "Предпочитаешь офис или удалёнку?",
		Buttons: []string{"Офис", "Удалёнка", "Гибрид", "Не важно"},
	})
	if !doc.ok || !doc.r.Get("isRelevant").Bool() {
		return cards.Question{}, false
	}
	return q, true
}

// CompanySizeQuestion asks where the user would like to work. Options adapt
// to the profession.
func (f *Flows) CompanySizeQuestion(ctx context.Context, profession string) cards.Question {
	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Для профессии "%[1]s" создай ЯРКИЙ вопрос о месте работы с релевантными вариантами.

ВАЖНО:
`+questionRules+`
4. Варианты ответов должны быть адаптированы под профессию:
   - Для IT-профессий: Стартап, Средняя компания, Крупная корпорация, Не важно
   - Для рабочих профессий: Частная фирма, Муниципальное предприятие, Крупная организация, Не важно
   - Для творческих: Агентство, Фриланс, Крупная студия, Не важно
   - Для медицинских: Частная клиника, Государственная больница, Медицинский центр, Не важно
   - Адаптируй варианты под конкретную профессию!

Примеры ХОРОШИХ вопросов:
- Для "Frontend-разработчик": "В какой компании ты видишь себя? В динамичном стартапе или в стабильной корпорации? 🚀"
- Для "Бариста": "Где тебе интереснее работать? В уютной кофейне или в крупной сети? ☕"

Формат JSON:
{
  "content": "Яркий вопрос о месте работы с вайбом профессии",
  "buttons": ["Вариант 1", "Вариант 2", "Вариант 3", "Вариант 4"]
}`, profession)

	q, _ := f.vibeQuestion(ctx, "company_size_question", prompt, cards.Question{
		Content: "Где ты хотел бы работать?",
		Buttons: []string{"Частная организация", "Государственная", "Крупная компания", "Не важно"},
	})
	return q
}

// LocationQuestion asks which city the user plans to work in.
func (f *Flows) LocationQuestion(ctx context.Context, profession string) cards.Question {
	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Для профессии "%[1]s" создай ЯРКИЙ вопрос о локации работы.

ВАЖНО:
`+questionRules+`
4. Учитывай специфику профессии - для некоторых профессий город важен больше, для других меньше

Примеры ХОРОШИХ вопросов:
- Для "Футбольный судья": "В каком городе ты планируешь работать? В Москве с большими матчами или в регионе? ⚽"
- Для "Frontend-разработчик": "Где ты видишь себя? В столице с кучей вакансий или в регионе со спокойным темпом? 💻"

Формат JSON:
{
  "content": "Яркий вопрос о локации с вайбом профессии",
  "buttons": ["Москва", "Санкт-Петербург", "Другой город", "Не важно"]
}`, profession)

	q, _ := f.vibeQuestion(ctx, "location_question", prompt, cards.Question{
		Content: "В каком городе ты планируешь работать?",
		Buttons: []string{"Москва", "Санкт-Петербург", "Другой город", "Не важно"},
	})
	return q
}

// SpecializationQuestion offers 3-4 directions inside the profession.
func (f *Flows) SpecializationQuestion(ctx context.Context, profession string) cards.Question {
	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Для профессии "%[1]s" предложи 3-4 возможные специализации или направления внутри этой профессии.

ВАЖНО:
`+questionRules+`
4. Варианты должны быть КОНКРЕТНЫМИ и РЕАЛЬНЫМИ для профессии "%[1]s"
5. Кнопки должны быть короткими (2-4 слова) и релевантными

Примеры ХОРОШИХ вопросов:
- Для "Бариста": "В какой кофейне ты видишь себя? В уютной локальной или в крупной сети? ☕"
- Для "Frontend-разработчик": "В какой сфере хочешь работать? В финтехе, e-commerce или может в образовании? 💻"
- Для "Массажист": "Какой массаж тебе ближе? Классический для расслабления или спортивный для восстановления? 🏃"

Формат JSON:
{
  "content": "Яркий вопрос о специализации с вайбом профессии",
  "buttons": ["Вариант 1", "Вариант 2", "Вариант 3", "Не важно"]
}

Варианты должны быть уникальными и интересными для профессии "%[1]s".`, profession)

	q, doc := f.vibeQuestion(ctx, "specialization_question", prompt, cards.Question{
		Content: "В какой сфере внутри профессии вы бы хотели попробовать?",
		Buttons: []string{"Финтех", "Ритейл", "Продуктовый магазин", "Не важно"},
	})
	if doc.ok && len(engine.Strings(doc.r.Get("buttons"))) == 0 {
		q.Buttons = []string{"Вариант 1", "Вариант 2", "Вариант 3", "Не важно"}
	}
	return q
}

// MotivationQuestion asks what draws the user to the profession.
func (f *Flows) MotivationQuestion(ctx context.Context, profession string) cards.Question {
	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Для профессии "%[1]s" создай ЯРКИЙ вопрос о мотивации, ценностях или том, что важно в работе.

ВАЖНО:
`+questionRules+`
4. Варианты должны быть РЕЛЕВАНТНЫМИ для профессии "%[1]s" и показывать разные мотивы работы

Примеры ХОРОШИХ вопросов:
- Для "Футбольный судья": "Что тебя привлекает в судействе? Любовь к футболу, желание справедливости или адреналин от важных матчей? ⚽"
- Для "Frontend-разработчик": "Что тебя больше заводит? Создавать красивые интерфейсы, решать сложные задачи или видеть результат своей работы? 💻"
- Для "Бариста": "Что тебя привлекает в кофе? Эстетика процесса, общение с людьми или возможность создавать что-то особенное? ☕"

Формат JSON:
{
  "content": "Яркий вопрос о мотивации/ценностях с вайбом профессии",
  "buttons": ["Вариант 1", "Вариант 2", "Вариант 3", "Вариант 4"]
}`, profession)

	q, _ := f.vibeQuestion(ctx, "motivation_question", prompt, cards.Question{
		Content: "Что тебя больше всего привлекает в этой профессии?",
		Buttons: []string{"Творчество", "Стабильность", "Деньги", "Развитие"},
	})
	return q
}

// MapLevel turns a level answer into an experience value. Unrecognised
// answers count as no experience.
func MapLevel(answer string) string {
	a := strings.ToLower(answer)
	switch {
	case strings.Contains(a, "без опыта"), strings.Contains(a, "студент"):
		return persona.ExperienceStudent
	case strings.Contains(a, "джун"), strings.Contains(a, "junior"):
		return persona.ExperienceJunior
	case strings.Contains(a, "мидл"), strings.Contains(a, "middle"):
		return persona.ExperienceMiddle
	case strings.Contains(a, "сеньор"), strings.Contains(a, "senior"):
		return persona.ExperienceSenior
	case strings.Contains(a, "начинающий"):
		return persona.ExperienceStudent
	case strings.Contains(a, "опыт"):
		return persona.ExperienceMiddle
	case strings.Contains(a, "профессионал"), strings.Contains(a, "мастер"):
		return persona.ExperienceSenior
	}
	return persona.ExperienceStudent
}

// MapWorkFormat turns a work format answer into a work style.
func MapWorkFormat(answer string) string {
	a := strings.ToLower(answer)
	switch {
	case strings.Contains(a, "офис"):
		return persona.WorkOffice
	case strings.Contains(a, "удалён"), strings.Contains(a, "удален"), strings.Contains(a, "remote"):
		return persona.WorkRemote
	case strings.Contains(a, "гибрид"):
		return persona.WorkHybrid
	}
	return persona.Any
}

// MapCompanySize turns a company answer into a company size.
func MapCompanySize(answer string) string {
	a := strings.ToLower(answer)
	switch {
	case strings.Contains(a, "стартап"):
		return persona.CompanyStartup
	case strings.Contains(a, "средн"):
		return persona.CompanyMedium
	case strings.Contains(a, "крупн"), strings.Contains(a, "корпорац"):
		return persona.CompanyLarge
	}
	return persona.Any
}

// MapLocation turns a location answer into a location value.
func MapLocation(answer string) string {
	a := strings.ToLower(answer)
	switch {
	case strings.Contains(a, "москв"):
		return persona.LocationMoscow
	case strings.Contains(a, "санкт"), strings.Contains(a, "петербург"), strings.Contains(a, "спб"):
		return persona.LocationSPb
	case strings.Contains(a, "удалён"), strings.Contains(a, "удален"), strings.Contains(a, "remote"):
		return persona.LocationRemote
	}
	return persona.LocationOther
}
