package dialogue

import (
	"context"
	"fmt"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/chat"
)

const chooseAny = "\n\nВыбери любую, чтобы узнать больше!"

// Questions are asked while the conversation is short; after that the user
// gets suggestions.
const (
	uncertainQuestionTurns     = 2
	clarificationQuestionTurns = 8
)

var learnMoreButtons = []string{"📋 Примеры задач", "📈 Карьерный рост", "🔍 Похожие профессии", "💾 Сохранить"}

func (o *Orchestrator) uncertain(ctx context.Context, t *turn) Response {
	if len(t.history) <= uncertainQuestionTurns {
		return o.clarifyingQuestions(ctx, t)
	}
	list := o.flows.SuggestForUncertain(ctx, t.persona, t.history)
	return t.reply(chat.ResponseMessage{
		Type:    chat.TypeCards,
		Content: list.Content + chooseAny,
		Cards:   list.Cards,
	}, chat.StageShowingResults)
}

func (o *Orchestrator) clarificationIntent(ctx context.Context, t *turn) Response {
	if len(t.history) < clarificationQuestionTurns {
		return o.clarifyingQuestions(ctx, t)
	}
	list := o.flows.SuggestForUncertain(ctx, t.persona, t.history)
	return t.reply(chat.ResponseMessage{
		Type:    chat.TypeCards,
		Content: list.Content,
		Cards:   list.Cards,
	}, chat.StageShowingResults)
}

func (o *Orchestrator) clarifyingQuestions(ctx context.Context, t *turn) Response {
	q := o.flows.ClarifyingQuestions(ctx, t.intent, t.persona)
	return t.reply(buttons(q.Content, q.Buttons), chat.StageClarifying)
}

func (o *Orchestrator) search(ctx context.Context, t *turn) Response {
	found := o.flows.Search(ctx, t.message, t.intent.Extracted)

	switch {
	case found.ShouldGenerate:
		q := o.flows.ProfessionQuestion(ctx, found.ProfessionToGenerate)
		msg := buttons(q.Content, q.Buttons)
		msg.Metadata = chat.Metadata{
			keyProfessionClarification: true,
			keyProfessionToClarify:     found.ProfessionToGenerate,
		}
		return t.reply(msg, chat.StageClarifying)

	case len(found.Cards) == 1:
		ref := found.Cards[0]
		q := o.flows.LevelQuestion(ctx, ref.Profession)
		msg := buttons(fmt.Sprintf(`Отлично! Я нашел профессию "%s". Перед тем как покажу карточку, уточни пару деталей 👇`, ref.Profession)+"\n\n"+q.Content, q.Buttons)
		msg.Metadata = Clarification{Step: StepLevel, Profession: ref.Profession, ExistingSlug: ref.Slug}.meta()
		return t.reply(msg, chat.StageClarifying)

	case len(found.Cards) > 1:
		return t.reply(chat.ResponseMessage{
			Type:    chat.TypeCards,
			Content: found.Content + chooseAny,
			Cards:   found.Cards,
		}, chat.StageShowingResults)
	}

	meta := chat.Metadata{keyShowingCard: true}
	if p := t.intent.Extracted.Profession; p != "" {
		meta[keyCurrentProfession] = p
	}
	return t.reply(chat.ResponseMessage{
		Type:     chat.TypeCards,
		Content:  found.Content + "\n\nЧто хочешь узнать дополнительно?",
		Cards:    []cards.Ref{},
		Buttons:  append([]string(nil), learnMoreButtons...),
		Metadata: meta,
	}, chat.StageShowingResults)
}
