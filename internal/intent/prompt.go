package intent

import (
	"fmt"

	"github.com/kalambet/careervibe/internal/chat"
)

// historyTurns is how many recent messages the classifier sees.
const historyTurns = 3

const promptTemplate = `Ты AI-ассистент для карьерного консультирования. Проанализируй сообщение пользователя и определи его намерение.

Возможные намерения:
- "search_profession": пользователь знает, какую профессию ищет или упоминает конкретные навыки/должности
- "uncertain": пользователь не знает, чего хочет, использует фразы типа "не знаю", "помоги выбрать", "что посоветуешь"
- "clarification": пользователь отвечает на уточняющий вопрос
- "scenario_choice": пользователь выбирает между "знаю профессию" или "не знаю"
- "game_day": пользователь хочет прожить день в профессии (фразы: "прожить день", "игровой день", "симуляция")
- "compare_professions": пользователь хочет сравнить профессии (фразы: "сравни", "в чем разница", "отличия")
- "show_impact": пользователь спрашивает о влиянии/ценности профессии (фразы: "какая польза", "зачем", "влияние")
- "show_similar": пользователь хочет похожие профессии (фразы: "похожие", "аналогичные", "альтернативы", "что еще")
- "show_tasks": пользователь хочет примеры задач (фразы: "пример задач", "что делает", "задачи", "обязанности")
- "show_career_details": пользователь спрашивает о карьерном росте (фразы: "карьера", "рост", "что дальше", "развитие")
- "explain_levels": пользователь спрашивает о различиях уровней (фразы: "отличие junior", "чем отличается middle", "разница между")
- "save_card": пользователь хочет сохранить карточку (фразы: "сохранить", "скачать", "PDF", "избранное")
- "share_card": пользователь хочет поделиться (фразы: "поделиться", "отправить", "ссылка")
- "general_chat": общение, приветствие, вопросы о сервисе

История диалога:
%s

Текущее сообщение: "%s"

Ответь ТОЛЬКО в формате JSON:
{
  "intent": "...",
  "confidence": 0.0-1.0,
  "extractedInfo": {
    "profession": "название профессии если упоминается",
    "skills": ["навык1", "навык2"],
    "level": "junior/middle/senior если упоминается",
    "interests": ["интерес1", "интерес2"],
    "professionsToCompare": ["профессия1", "профессия2"] - если хочет сравнить,
    "levelsToCompare": ["junior", "senior"] - если спрашивает о различиях уровней
  }
}`

// BuildPrompt renders the classification prompt for message with only the
// most recent history turns.
func BuildPrompt(message string, history []chat.Message) string {
	return fmt.Sprintf(promptTemplate, chat.Format(chat.Tail(history, historyTurns)), message)
}
