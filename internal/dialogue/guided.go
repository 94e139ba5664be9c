package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/chat"
	"github.com/kalambet/careervibe/internal/subflow"
)

var confirmedButtons = []string{"Показать похожие профессии", "Главное меню"}

func softQuestionMessage(q subflow.SoftQuestion, prefix string, step int) chat.ResponseMessage {
	msg := chat.ResponseMessage{Type: chat.TypeButtons, Content: prefix + q.Content, Buttons: q.Buttons}
	if q.IsFreeForm || len(q.Buttons) == 0 {
		msg.Type = chat.TypeText
	}
	msg.Metadata = chat.Metadata{
		keyUncertainFlow:     true,
		keyUncertainFlowStep: step,
		keyQuestionType:      q.QuestionType,
		keyFreeForm:          q.IsFreeForm,
	}
	return msg
}

func (o *Orchestrator) uncertainFlow(ctx context.Context, t *turn) Response {
	s := t.state.(UncertainFlow)
	answer := strings.TrimSpace(t.message)

	switch s.QuestionType {
	case subflow.QuestionWorkStyle:
		t.persona.WorkStyle = answer
	case subflow.QuestionValues:
		t.persona.Values = answer
	case subflow.QuestionSkills:
		t.persona.AddSkill(answer)
	default:
		t.persona.AddInterest(answer)
	}

	next := s.Step + 1
	if next < subflow.UncertainFlowSteps {
		q := o.flows.SoftQuestion(ctx, next, t.history, t.persona)
		return t.reply(softQuestionMessage(q, "", next), chat.StageClarifying)
	}

	pick := o.flows.DetermineFinalProfession(ctx, t.persona, t.history)
	ref := o.flows.FindOrGenerate(ctx, pick)
	o.logger.Info("guided flow finished", "profession", pick.Profession, "confidence", pick.Confidence, "source", pick.Source)

	return t.reply(chat.ResponseMessage{
		Type:    chat.TypeCards,
		Content: fmt.Sprintf("%s\n\nЯ подобрал для тебя профессию: **%s**. Что скажешь, понравилась? 😊", pick.Reasoning, pick.Profession),
		Buttons: []string{"Да, понравилась!", "Не совсем, предложи другую"},
		Cards:   []cards.Ref{ref},
		Metadata: chat.Metadata{
			keyUncertainFlow:        false,
			keyAwaitingConfirmation: true,
			keySuggestedProfession:  pick.Profession,
			keyProfessionCard:       ref,
		},
	}, chat.StageShowingResults)
}

func (o *Orchestrator) confirmation(ctx context.Context, t *turn) Response {
	s := t.state.(AwaitingConfirmation)
	if confirmed(t.message) {
		msg := chat.ResponseMessage{
			Type:    chat.TypeCards,
			Content: fmt.Sprintf(`Отлично! 🎉 Рад, что тебе понравилось! Вот детальная информация о профессии "%s":`, s.SuggestedProfession),
			Buttons: append([]string(nil), confirmedButtons...),
		}
		if s.Card != nil {
			msg.Cards = []cards.Ref{*s.Card}
		}
		return t.reply(msg, chat.StageShowingResults)
	}

	t.persona.SetUncertain(true)
	q := o.flows.SoftQuestion(ctx, 0, t.history, t.persona)
	return t.reply(softQuestionMessage(q, "Понятно, давай подберем что-то другое! 😊\n\n", 0), chat.StageClarifying)
}

var negativeMarkers = []string{"не понрав", "не подход", "не совсем", "нет"}

// confirmed reports whether an answer accepts the suggested profession.
// Negations win over positive words.
func confirmed(answer string) bool {
	a := strings.ToLower(answer)
	if containsAny(a, negativeMarkers...) {
		return false
	}
	if containsAny(a, "понравил", "подходит") {
		return true
	}
	for _, w := range strings.FieldsFunc(a, func(r rune) bool {
		return !(r >= 'а' && r <= 'я' || r == 'ё' || r >= 'a' && r <= 'z')
	}) {
		if w == "да" {
			return true
		}
	}
	return false
}
