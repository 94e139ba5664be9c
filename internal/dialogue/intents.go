package dialogue

import (
	"context"
	"fmt"

	"github.com/kalambet/careervibe/internal/chat"
	"github.com/kalambet/careervibe/internal/subflow"
)

const mainMenu = "Главное меню"

func (o *Orchestrator) showImpact(ctx context.Context, t *turn) Response {
	prof := t.profession()
	return t.reply(text(o.flows.ShowImpact(ctx, prof).Text(prof)), chat.StageShowingResults)
}

func (o *Orchestrator) showSimilar(ctx context.Context, t *turn) Response {
	prof := t.profession()
	level := t.persona.Experience
	if c, ok := t.lastCard(); ok && c.Level != "" {
		level = c.Level
	}
	list := o.flows.ShowSimilar(ctx, prof, subflow.SimilarContext{
		Level:     level,
		Skills:    t.persona.Skills,
		Interests: t.persona.Interests,
	})
	return t.reply(chat.ResponseMessage{
		Type:     chat.TypeCards,
		Content:  list.Content,
		Cards:    list.Cards,
		Metadata: chat.Metadata{keyCurrentProfession: prof, keyShowingSimilar: true},
	}, chat.StageShowingResults)
}

func (o *Orchestrator) showTasks(ctx context.Context, t *turn) Response {
	prof := t.profession()
	tc := subflow.TaskContext{
		Level:          t.persona.Experience,
		Location:       t.persona.Location,
		Specialization: t.persona.Specialization,
	}
	if c, ok := t.lastCard(); ok {
		if c.Level != "" {
			tc.Level = c.Level
		}
		tc.Company = c.Company
	}
	msg := textWithButtons(o.flows.ShowTasks(ctx, prof, tc).Text(),
		"Показать похожие профессии", "Карьерный путь", mainMenu)
	msg.Metadata = chat.Metadata{keyCurrentProfession: prof, keyShowingTasks: true}
	return t.reply(msg, chat.StageShowingResults)
}

func (o *Orchestrator) showCareer(ctx context.Context, t *turn) Response {
	prof := t.profession()
	level := t.intent.Extracted.Level
	if c, ok := t.lastCard(); ok && level == "" {
		level = c.Level
	}
	career := o.flows.ShowCareer(ctx, prof, level, subflow.CareerContext{
		Location:       t.persona.Location,
		Specialization: t.persona.Specialization,
	})
	msg := textWithButtons(career.Text(), "Показать похожие профессии", "Примеры задач", mainMenu)
	msg.Metadata = chat.Metadata{keyCurrentProfession: prof, keyShowingCareer: true}
	return t.reply(msg, chat.StageShowingResults)
}

func (o *Orchestrator) explainLevels(ctx context.Context, t *turn) Response {
	prof := t.profession()
	lc := o.flows.ExplainLevels(ctx, prof, t.intent.Extracted.LevelsToCompare)
	return t.reply(textWithButtons(lc.Text(), "Карьерный путь", "Примеры задач", mainMenu), chat.StageShowingResults)
}

var cardActionButtons = []string{"Открыть карточку", "Похожие профессии", mainMenu}

func (o *Orchestrator) saveCard(_ context.Context, t *turn) Response {
	c, ok := t.lastCard()
	if !ok || c.Slug == "" {
		return t.reply(text("Сначала выбери профессию, которую хочешь сохранить 😊"), chat.StageShowingResults)
	}
	content := "✅ Отлично! Ты можешь:\n\n" +
		"1. 📥 **Скачать PDF** — перейди на страницу профессии и нажми кнопку \"Скачать PDF карточку\"\n" +
		"2. ⭐ **Добавить в избранное** — открой карточку в браузере и добавь в закладки\n" +
		"3. 🔗 **Сохранить ссылку**: /profession/" + c.Slug + "\n\n" +
		"Хочешь посмотреть полную карточку профессии?"
	msg := chat.ResponseMessage{
		Type:     chat.TypeText,
		Content:  content,
		Buttons:  append([]string(nil), cardActionButtons...),
		Metadata: chat.Metadata{keyProfessionSlug: c.Slug},
	}
	return t.reply(msg, chat.StageShowingResults)
}

func (o *Orchestrator) shareCard(_ context.Context, t *turn) Response {
	c, ok := t.lastCard()
	if !ok || c.Slug == "" {
		return t.reply(text("Сначала выбери профессию, которой хочешь поделиться 😊"), chat.StageShowingResults)
	}
	url := o.shareBaseURL + "/profession/" + c.Slug
	content := fmt.Sprintf("🔗 **Поделиться профессией \"%s\"**\n\nСсылка для отправки:\n%s\n\n"+
		"Скопируй эту ссылку и отправь друзьям! Они смогут посмотреть полную карточку профессии "+
		"с расписанием дня, навыками и карьерным путём.", c.Profession, url)
	msg := chat.ResponseMessage{
		Type:     chat.TypeText,
		Content:  content,
		Buttons:  append([]string(nil), cardActionButtons...),
		Metadata: chat.Metadata{keyProfessionSlug: c.Slug},
	}
	return t.reply(msg, chat.StageShowingResults)
}

func (o *Orchestrator) compareIntent(ctx context.Context, t *turn) Response {
	if ps := t.intent.Extracted.ProfessionsToCompare; len(ps) >= 2 {
		return t.reply(text(o.flows.Compare(ctx, ps[0], ps[1]).Text()), chat.StageShowingResults)
	}
	msg := text(`Скажи, какие две профессии ты хочешь сравнить? Например: "Frontend-разработчик и Backend-разработчик"`)
	msg.Metadata = chat.Metadata{keyAwaitingCompare: true}
	return t.reply(msg, chat.StageInitial)
}

func (o *Orchestrator) gameDayIntent(ctx context.Context, t *turn) Response {
	if p := t.intent.Extracted.Profession; p != "" {
		return t.reply(gameDayMessage(o.flows.StartGameDay(ctx, p)), chat.StageClarifying)
	}
	msg := text("Круто! Напиши название профессии, и ты проживёшь целый рабочий день в этой роли 🎮")
	msg.Metadata = chat.Metadata{keyAwaitingGameDayProfession: true}
	return t.reply(msg, chat.StageInitial)
}
