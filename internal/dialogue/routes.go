package dialogue

import (
	"context"
	"slices"
	"strings"

	"github.com/kalambet/careervibe/internal/chat"
	"github.com/kalambet/careervibe/internal/intent"
	"github.com/kalambet/careervibe/internal/subflow"
)

// Route is one entry of the routing table. Routes are tried in order and
// the first match answers the turn.
type Route struct {
	Name   string
	Match  func(t *turn) bool
	Handle func(ctx context.Context, t *turn) Response
}

// Routes returns the routing table in evaluation order.
func (o *Orchestrator) Routes() []Route {
	return slices.Clone(o.routes)
}

func (o *Orchestrator) table() []Route {
	routes := []Route{
		{Name: "greeting", Match: func(t *turn) bool { return len(t.history) == 0 }, Handle: o.greeting},
		{Name: "greeting-reply", Match: stateIs[Greeting], Handle: o.greetingReply},
		{Name: "game-day", Match: stateIs[GameDay], Handle: o.gameDay},
		{Name: "awaiting-game-day-profession", Match: stateIs[AwaitingGameDayProfession], Handle: o.awaitingGameDay},
		{Name: "awaiting-compare-professions", Match: stateIs[AwaitingCompareProfessions], Handle: o.awaitingCompare},
		{Name: "uncertain-flow", Match: inUncertainFlow, Handle: o.uncertainFlow},
		{Name: "confirmation", Match: stateIs[AwaitingConfirmation], Handle: o.confirmation},
	}

	intentRoutes := []struct {
		intent intent.Intent
		handle func(ctx context.Context, t *turn) Response
	}{
		{intent.ShowImpact, o.showImpact},
		{intent.ShowSimilar, o.showSimilar},
		{intent.ShowTasks, o.showTasks},
		{intent.ShowCareerDetails, o.showCareer},
		{intent.ExplainLevels, o.explainLevels},
		{intent.SaveCard, o.saveCard},
		{intent.ShareCard, o.shareCard},
		{intent.CompareProfessions, o.compareIntent},
		{intent.GameDay, o.gameDayIntent},
	}
	for _, ir := range intentRoutes {
		routes = append(routes, Route{Name: string(ir.intent), Match: intentIs(ir.intent), Handle: ir.handle})
	}

	return append(routes,
		Route{Name: "clarification", Match: stateIs[Clarification], Handle: o.clarification},
		Route{Name: "profession-clarification", Match: stateIs[ProfessionClarification], Handle: o.professionClarification},
		Route{Name: "uncertain", Match: func(t *turn) bool {
			return t.intent.Intent == intent.Uncertain || t.persona.Uncertain()
		}, Handle: o.uncertain},
		Route{Name: "search", Match: intentIs(intent.SearchProfession), Handle: o.search},
		Route{Name: "clarification-intent", Match: intentIs(intent.Clarification), Handle: o.clarificationIntent},
		Route{Name: "general-chat", Match: func(*turn) bool { return true }, Handle: o.generalChat},
	)
}

func stateIs[S State](t *turn) bool {
	_, ok := t.state.(S)
	return ok
}

func intentIs(i intent.Intent) func(t *turn) bool {
	return func(t *turn) bool { return t.intent.Intent == i }
}

func inUncertainFlow(t *turn) bool {
	s, ok := t.state.(UncertainFlow)
	return ok && s.Step < subflow.UncertainFlowSteps
}

const greetingContent = "👋 Привет! Хочешь почувствовать, каково быть в роли конкретного специалиста — или помочь тебе подобрать профессию, которая тебе подойдёт?"

var greetingButtons = []string{
	"🎯 Я уже знаю профессию",
	"🤔 Помоги мне выбрать",
	"🎮 Прожить день в профессии",
	"⚖️ Сравнить профессии",
}

func (o *Orchestrator) greeting(_ context.Context, t *turn) Response {
	msg := buttons(greetingContent, slices.Clone(greetingButtons))
	msg.Metadata = chat.Metadata{keyGreeting: true}
	return t.reply(msg, chat.StageInitial)
}

func (o *Orchestrator) greetingReply(ctx context.Context, t *turn) Response {
	m := strings.ToLower(t.message)
	switch {
	case containsAny(m, "знаю профессию", "🎯"):
		return t.reply(text("Отлично! Напиши название профессии, которая тебя интересует, и я покажу её вайб ✨"), chat.StageInitial)

	case containsAny(m, "помоги", "выбрать", "🤔"):
		t.persona.SetUncertain(true)
		q := o.flows.SoftQuestion(ctx, 0, t.history, t.persona)
		return t.reply(softQuestionMessage(q, "Окей, давай вместе найдем профессию, которая тебе подойдет! 🌿\n\n", 0), chat.StageClarifying)

	case containsAny(m, "прожить день", "🎮"):
		msg := text("Круто! Напиши название профессии, и ты проживёшь целый рабочий день в этой роли 🎮")
		msg.Metadata = chat.Metadata{keyAwaitingGameDayProfession: true}
		return t.reply(msg, chat.StageInitial)

	case containsAny(m, "сравнить", "⚖️"):
		msg := text(`Интересно! Напиши две профессии через запятую, и я сравню их для тебя. Например: "Frontend-разработчик, Backend-разработчик"`)
		msg.Metadata = chat.Metadata{keyAwaitingCompare: true}
		return t.reply(msg, chat.StageInitial)
	}
	return o.greeting(ctx, t)
}

func (o *Orchestrator) gameDay(ctx context.Context, t *turn) Response {
	s := t.state.(GameDay)
	if s.IsLastStep || strings.Contains(strings.ToLower(t.message), "завершить") {
		content, b := subflow.GameDaySummary(s.Profession)
		return t.reply(chat.ResponseMessage{Type: chat.TypeText, Content: content, Buttons: b}, chat.StageShowingResults)
	}
	next := o.flows.ContinueGameDay(ctx, subflow.GameDayStep{
		Profession: s.Profession,
		Step:       s.Step,
		Time:       s.Time,
		Situation:  s.Situation,
	}, t.message)
	return t.reply(gameDayMessage(next), chat.StageClarifying)
}

func gameDayMessage(s subflow.GameDayStep) chat.ResponseMessage {
	msg := buttons(s.Content, s.Buttons)
	msg.Metadata = gameDayMeta(GameDay{
		Profession: s.Profession,
		Step:       s.Step,
		Time:       s.Time,
		Situation:  s.Situation,
		IsLastStep: s.IsLastStep,
	})
	return msg
}

func (o *Orchestrator) awaitingGameDay(ctx context.Context, t *turn) Response {
	profession := strings.TrimSpace(t.intent.Extracted.Profession)
	if profession == "" {
		profession = strings.TrimSpace(t.message)
	}
	return t.reply(gameDayMessage(o.flows.StartGameDay(ctx, profession)), chat.StageClarifying)
}

func (o *Orchestrator) awaitingCompare(ctx context.Context, t *turn) Response {
	parts := strings.Split(t.message, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) >= 2 {
		return t.reply(text(o.flows.Compare(ctx, parts[0], parts[1]).Text()), chat.StageShowingResults)
	}
	msg := text(`Пожалуйста, укажи две профессии через запятую. Например: "Бариста, Массажист"`)
	msg.Metadata = chat.Metadata{keyAwaitingCompare: true}
	return t.reply(msg, chat.StageInitial)
}

func (o *Orchestrator) generalChat(ctx context.Context, t *turn) Response {
	return t.reply(text(o.flows.GeneralChat(ctx, t.message)), chat.StageInitial)
}
