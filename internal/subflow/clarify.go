package subflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/chat"
)

// ProfessionQuestion asks what the user means by a profession the catalog
// does not know yet.
func (f *Flows) ProfessionQuestion(ctx context.Context, profession string) cards.Question {
	if f.gen == nil {
		return cards.Question{
			Content: fmt.Sprintf(`Расскажи подробнее, что ты имеешь в виду под профессией "%s"? Чем бы ты хотел заниматься? 🤔`, profession),
		}
	}
	return cards.ClarificationQuestion(ctx, f.gen, profession)
}

// ProfessionDescription condenses the user's answer to ProfessionQuestion.
func (f *Flows) ProfessionDescription(ctx context.Context, profession, answer string, history []chat.Message) string {
	if f.gen == nil {
		return strings.TrimSpace(answer)
	}
	return cards.ExtractDescription(ctx, f.gen, profession, answer, chat.Turns(history))
}
