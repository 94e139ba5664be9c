package subflow

import (
	"context"
	"fmt"
	"strings"
)

const (
	gameDayTemperature = 0.8
	gameDayLastStep    = 6
	gameDayStartTime   = "09:00"
)

// GameDayStep is one beat of the game-day simulation.
type GameDayStep struct {
	Content    string
	Buttons    []string
	Profession string
	Step       int
	Time       string
	Situation  string
	IsLastStep bool
}

// StartGameDay opens a game day for profession at step 1.
func (f *Flows) StartGameDay(ctx context.Context, profession string) GameDayStep {
	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Создай интерактивный "игровой день" для профессии "%[1]s".

Опиши первую ситуацию рабочего дня (утро, 9:00-10:00), где пользователь должен сделать выбор.

Формат:
{
  "content": "Описание ситуации (2-3 предложения)",
  "situation": "короткое описание что происходит",
  "time": "09:00",
  "buttons": ["Действие 1", "Действие 2", "Действие 3"]
}

Пример для Frontend-разработчика:
{
  "content": "☕ 9:00 - Ты пришел в офис. На Slack 5 новых сообщений: коллега просит помочь с багом, PM напоминает о дедлайне, и тимлид приглашает на код-ревью. Что делаешь первым делом?",
  "situation": "morning_decisions",
  "time": "09:00",
  "buttons": ["Помочь с багом", "Идти на код-ревью", "Проверить свои задачи"]
}

Создай первую ситуацию для "%[1]s":`, profession)

	var out struct {
		Content   string   `json:"content"`
		Situation string   `json:"situation"`
		Time      string   `json:"time"`
		Buttons   []string `json:"buttons"`
	}
	if !f.askJSON(ctx, "game_day_start", prompt, gameDayTemperature, &out) {
		return GameDayStep{
			Content:    fmt.Sprintf("🎮 Игровой день для %s! Представь, что ты начинаешь свой рабочий день. Что делаешь первым?", profession),
			Buttons:    []string{"Проверить почту", "Выпить кофе", "Начать работу"},
			Profession: profession,
			Step:       1,
			Time:       gameDayStartTime,
			Situation:  "start",
		}
	}

	buttons := out.Buttons
	if len(buttons) == 0 {
		buttons = []string{"Начать день", "Выбрать другую профессию"}
	}
	return GameDayStep{
		Content:    orDefault(out.Content, fmt.Sprintf("Начинаем игровой день в профессии %s!", profession)),
		Buttons:    buttons,
		Profession: profession,
		Step:       1,
		Time:       orDefault(out.Time, gameDayStartTime),
		Situation:  orDefault(out.Situation, "start"),
	}
}

// ContinueGameDay advances the simulation after the user's choice. The day
// ends once the model says so or the sixth step is reached. Time is taken
// from the model; on failure the current time is kept.
func (f *Flows) ContinueGameDay(ctx context.Context, cur GameDayStep, choice string) GameDayStep {
	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Продолжи интерактивный "игровой день" для профессии "%s".

Текущая ситуация: %s
Время: %s
Шаг: %d
Выбор пользователя: "%s"

Создай следующую ситуацию (через 1-2 часа). Всего должно быть 5-6 ситуаций за день.

Формат JSON:
{
  "content": "Описание что произошло после выбора + новая ситуация",
  "situation": "краткое описание",
  "time": "новое время (HH:00)",
  "buttons": ["Действие 1", "Действие 2", "Действие 3"],
  "isLastStep": false
}

Если это последняя ситуация дня (шаг 5-6), установи "isLastStep": true и добавь кнопки:
["Завершить день", "Начать заново", "Выбрать другую профессию"]`, cur.Profession, cur.Situation, cur.Time, cur.Step, choice)

	next := cur.Step + 1
	var out struct {
		Content    string   `json:"content"`
		Situation  string   `json:"situation"`
		Time       string   `json:"time"`
		Buttons    []string `json:"buttons"`
		IsLastStep bool     `json:"isLastStep"`
	}
	if !f.askJSON(ctx, "game_day_continue", prompt, gameDayTemperature, &out) {
		return GameDayStep{
			Content:    "День продолжается... Что делаешь дальше?",
			Buttons:    []string{"Продолжить работу", "Сделать перерыв", "Завершить день"},
			Profession: cur.Profession,
			Step:       next,
			Time:       cur.Time,
			Situation:  cur.Situation,
			IsLastStep: next >= gameDayLastStep,
		}
	}

	buttons := out.Buttons
	if len(buttons) == 0 {
		buttons = []string{"Продолжить", "Завершить"}
	}
	return GameDayStep{
		Content:    orDefault(out.Content, "Продолжаем день..."),
		Buttons:    buttons,
		Profession: cur.Profession,
		Step:       next,
		Time:       orDefault(strings.TrimSpace(out.Time), cur.Time),
		Situation:  orDefault(out.Situation, "continue"),
		IsLastStep: out.IsLastStep || next >= gameDayLastStep,
	}
}

// GameDaySummary is the closing message of a finished game day.
func GameDaySummary(profession string) (string, []string) {
	return fmt.Sprintf("🎉 Отличная работа! Ты прожил день как %s. Теперь ты лучше понимаешь, каково работать в этой профессии!\n\nХочешь посмотреть полную карточку профессии или выбрать другую?", profession),
		[]string{"Показать карточку", "Выбрать другую профессию", "Главное меню"}
}
