package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/chat"
	"github.com/kalambet/careervibe/internal/persona"
	"github.com/kalambet/careervibe/internal/subflow"
)

var errNoStore = errors.New("card store is not configured")

// clarification walks the preference questions asked before a card is
// generated: level, work format, company size, location, specialization
// and motivation. Work format is skipped when it does not matter for the
// profession, location when the user works remotely.
func (o *Orchestrator) clarification(ctx context.Context, t *turn) Response {
	s := t.state.(Clarification)
	answer := strings.TrimSpace(t.message)
	p := &t.persona

	ask := func(step string, q cards.Question) Response {
		next := s
		next.Step = step
		msg := buttons(q.Content, q.Buttons)
		msg.Metadata = next.meta()
		return t.reply(msg, chat.StageClarifying)
	}

	switch s.Step {
	case StepLevel:
		p.Experience = subflow.MapLevel(answer)
		if q, ok := o.flows.WorkFormatQuestion(ctx, s.Profession); ok {
			return ask(StepWorkFormat, q)
		}
		return ask(StepCompanySize, o.flows.CompanySizeQuestion(ctx, s.Profession))

	case StepWorkFormat:
		wf := subflow.MapWorkFormat(answer)
		if wf == persona.WorkRemote || wf == persona.WorkHybrid {
			p.Location = persona.LocationRemote
		}
		p.WorkStyle = wf
		return ask(StepCompanySize, o.flows.CompanySizeQuestion(ctx, s.Profession))

	case StepCompanySize:
		p.CompanySize = subflow.MapCompanySize(answer)
		if p.Location != persona.LocationRemote {
			return ask(StepLocation, o.flows.LocationQuestion(ctx, s.Profession))
		}
		return ask(StepSpecialization, o.flows.SpecializationQuestion(ctx, s.Profession))

	case StepLocation:
		p.Location = subflow.MapLocation(answer)
		return ask(StepSpecialization, o.flows.SpecializationQuestion(ctx, s.Profession))

	case StepSpecialization:
		p.Specialization = answer
		return ask(StepMotivation, o.flows.MotivationQuestion(ctx, s.Profession))

	case StepMotivation:
		p.Motivation = answer
		return o.generateCard(ctx, t, s)
	}

	o.logger.Warn("unknown clarification step, restarting", "step", s.Step)
	return ask(StepLevel, o.flows.LevelQuestion(ctx, s.Profession))
}

var cardLevels = map[string]string{
	persona.ExperienceStudent: "Junior",
	persona.ExperienceJunior:  "Junior",
	persona.ExperienceMiddle:  "Middle",
	persona.ExperienceSenior:  "Senior",
}

var companyNames = map[string]string{
	persona.CompanyStartup: "стартап",
	persona.CompanyMedium:  "средняя компания",
	persona.CompanyLarge:   "крупная корпорация",
}

func (o *Orchestrator) generateCard(ctx context.Context, t *turn, s Clarification) Response {
	p := t.persona
	level := cardLevels[p.Experience]
	if level == "" {
		level = "Middle"
	}
	company := companyNames[p.CompanySize]
	if company == "" {
		company = subflow.DefaultCompany
	}

	card, err := o.buildCard(ctx, s.Profession, level, company, cards.Options{
		CompanySize:    p.CompanySize,
		Location:       p.Location,
		Specialization: p.Specialization,
		Motivation:     p.Motivation,
		WorkStyle:      p.WorkStyle,
		Description:    s.Description,
	})
	if err != nil {
		o.logger.Error("card generation failed", "profession", s.Profession, "error", err)
		return t.reply(text(fmt.Sprintf(`К сожалению, не удалось сгенерировать карточку для "%s". Ошибка: %v`, s.Profession, err)), chat.StageInitial)
	}

	levelLabel := "Уровень"
	if card.DisplayLabels != nil && card.DisplayLabels.Level != "" {
		levelLabel = card.DisplayLabels.Level
	}
	var spec string
	if p.Specialization != "" {
		spec = "• Специализация: " + p.Specialization
	}
	content := fmt.Sprintf("Отлично! Я сгенерировал карточку для профессии \"%s\" с учетом ваших предпочтений:\n\n"+
		"• %s: %s\n• Формат: %s\n• Компания: %s\n• Локация: %s\n%s\n\nЧто хочешь узнать дополнительно?",
		s.Profession, levelLabel, orDefault(card.Level, level), workFormatLabel(p.WorkStyle),
		company, locationLabel(p.Location), spec)

	return t.reply(chat.ResponseMessage{
		Type:     chat.TypeCards,
		Content:  content,
		Cards:    []cards.Ref{card.Ref()},
		Buttons:  append([]string(nil), learnMoreButtons...),
		Metadata: chat.Metadata{keyShowingCard: true, keyCurrentProfession: s.Profession},
	}, chat.StageShowingResults)
}

// buildCard generates a card with the collected preferences and persists it.
func (o *Orchestrator) buildCard(ctx context.Context, profession, level, company string, opts cards.Options) (cards.Card, error) {
	if o.store == nil {
		return cards.Card{}, errNoStore
	}
	card, err := o.store.Generate(ctx, profession, level, company, opts)
	if err != nil {
		return cards.Card{}, err
	}
	card.Preferences = &cards.Preferences{
		Location:       opts.Location,
		CompanySize:    opts.CompanySize,
		Specialization: opts.Specialization,
		Motivation:     opts.Motivation,
		WorkStyle:      opts.WorkStyle,
	}
	if err := o.store.Put(card.Slug, card); err != nil {
		o.logger.Warn("card not persisted", "slug", card.Slug, "error", err)
	}
	return card, nil
}

func workFormatLabel(ws string) string {
	switch ws {
	case persona.WorkRemote:
		return "Удалёнка"
	case persona.WorkOffice:
		return "Офис"
	}
	return "Гибрид"
}

func locationLabel(loc string) string {
	switch loc {
	case persona.LocationMoscow:
		return "Москва"
	case persona.LocationSPb:
		return "Санкт-Петербург"
	case persona.LocationRemote:
		return "Удалённо"
	}
	return "Другой город"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// professionClarification takes the user's description of an unknown
// profession and starts the preference questions.
func (o *Orchestrator) professionClarification(ctx context.Context, t *turn) Response {
	s := t.state.(ProfessionClarification)
	desc := o.flows.ProfessionDescription(ctx, s.Profession, t.message, t.history)
	q := o.flows.LevelQuestion(ctx, s.Profession)

	msg := buttons(fmt.Sprintf(`Отлично! Перед тем как сгенерирую карточку для "%s", уточни пару деталей 👇`, s.Profession)+"\n\n"+q.Content, q.Buttons)
	msg.Metadata = Clarification{Step: StepLevel, Profession: s.Profession, Description: desc}.meta()
	return t.reply(msg, chat.StageClarifying)
}
