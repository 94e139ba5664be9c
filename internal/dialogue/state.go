package dialogue

import (
	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/chat"
)

// Metadata keys carried on assistant messages. Clients echo them back in
// the history, which is how the next turn knows where the dialogue is.
const (
	keyGreeting                  = "isGreeting"
	keyGameDay                   = "isGameDay"
	keyProfession                = "profession"
	keyStep                      = "step"
	keyTime                      = "time"
	keySituation                 = "situation"
	keyLastStep                  = "isLastStep"
	keyAwaitingGameDayProfession = "awaitingGameDayProfession"
	keyAwaitingCompare           = "awaitingCompareProfessions"
	keyUncertainFlow             = "uncertainFlow"
	keyUncertainFlowStep         = "uncertainFlowStep"
	keyQuestionType              = "questionType"
	keyFreeForm                  = "isFreeForm"
	keyAwaitingConfirmation      = "awaitingProfessionConfirmation"
	keySuggestedProfession       = "suggestedProfession"
	keyProfessionCard            = "professionCard"
	keyClarificationStep         = "clarificationStep"
	keyProfessionForClarify      = "professionForClarification"
	keyProfessionDescription     = "professionDescription"
	keyExistingSlug              = "existingProfessionSlug"
	keyProfessionClarification   = "isProfessionClarification"
	keyProfessionToClarify       = "professionToClarify"
	keyShowingCard               = "showingProfessionCard"
	keyCurrentProfession         = "currentProfession"
	keyShowingSimilar            = "showingSimilar"
	keyShowingTasks              = "showingTasks"
	keyShowingCareer             = "showingCareer"
	keyProfessionSlug            = "professionSlug"
)

// Clarification steps, asked in this order. work_format and location may be
// skipped.
const (
	StepLevel          = "level"
	StepWorkFormat     = "work_format"
	StepCompanySize    = "company_size"
	StepLocation       = "location"
	StepSpecialization = "specialization"
	StepMotivation     = "motivation"
)

// State is the dialogue position recovered from the last assistant message.
type State interface {
	isState()
}

type Idle struct{}

type Greeting struct{}

type GameDay struct {
	Profession string
	Step       int
	Time       string
	Situation  string
	IsLastStep bool
}

type AwaitingGameDayProfession struct{}

type AwaitingCompareProfessions struct{}

type UncertainFlow struct {
	Step         int
	QuestionType string
}

type AwaitingConfirmation struct {
	SuggestedProfession string
	Card                *cards.Ref
}

type Clarification struct {
	Step         string
	Profession   string
	Description  string
	ExistingSlug string
}

type ProfessionClarification struct {
	Profession string
}

func (Idle) isState()                       {}
func (Greeting) isState()                   {}
func (GameDay) isState()                    {}
func (AwaitingGameDayProfession) isState()  {}
func (AwaitingCompareProfessions) isState() {}
func (UncertainFlow) isState()              {}
func (AwaitingConfirmation) isState()       {}
func (Clarification) isState()              {}
func (ProfessionClarification) isState()    {}

// ParseState reads the state from the last assistant message in history.
// Incomplete metadata (a game day without a profession, a clarification
// step without its profession) reads as Idle.
func ParseState(history []chat.Message) State {
	last, ok := chat.LastAssistant(history)
	if !ok {
		return Idle{}
	}
	m := last.Metadata

	switch {
	case m.Bool(keyGreeting):
		return Greeting{}
	case m.Bool(keyGameDay) && m.String(keyProfession) != "":
		gd := GameDay{
			Profession: m.String(keyProfession),
			Step:       m.Int(keyStep),
			Time:       m.String(keyTime),
			Situation:  m.String(keySituation),
			IsLastStep: m.Bool(keyLastStep),
		}
		if gd.Step == 0 {
			gd.Step = 1
		}
		if gd.Time == "" {
			gd.Time = "09:00"
		}
		if gd.Situation == "" {
			gd.Situation = "start"
		}
		return gd
	case m.Bool(keyAwaitingGameDayProfession):
		return AwaitingGameDayProfession{}
	case m.Bool(keyAwaitingCompare):
		return AwaitingCompareProfessions{}
	case m.Bool(keyUncertainFlow) && !m.Bool(keyAwaitingConfirmation):
		return UncertainFlow{
			Step:         m.Int(keyUncertainFlowStep),
			QuestionType: m.String(keyQuestionType),
		}
	case m.Bool(keyAwaitingConfirmation) && m.String(keySuggestedProfession) != "":
		st := AwaitingConfirmation{SuggestedProfession: m.String(keySuggestedProfession)}
		var ref cards.Ref
		if m.Decode(keyProfessionCard, &ref) && ref.Profession != "" {
			st.Card = &ref
		}
		return st
	case m.String(keyClarificationStep) != "" && m.String(keyProfessionForClarify) != "":
		return Clarification{
			Step:         m.String(keyClarificationStep),
			Profession:   m.String(keyProfessionForClarify),
			Description:  m.String(keyProfessionDescription),
			ExistingSlug: m.String(keyExistingSlug),
		}
	case m.Bool(keyProfessionClarification) && m.String(keyProfessionToClarify) != "":
		return ProfessionClarification{Profession: m.String(keyProfessionToClarify)}
	}
	return Idle{}
}

// gameDayMeta is the metadata that keeps a game day going.
func gameDayMeta(s GameDay) chat.Metadata {
	return chat.Metadata{
		keyGameDay:    true,
		keyProfession: s.Profession,
		keyStep:       s.Step,
		keyTime:       s.Time,
		keySituation:  s.Situation,
		keyLastStep:   s.IsLastStep,
	}
}

func (c Clarification) meta() chat.Metadata {
	m := chat.Metadata{
		keyClarificationStep:    c.Step,
		keyProfessionForClarify: c.Profession,
	}
	if c.Description != "" {
		m[keyProfessionDescription] = c.Description
	}
	if c.ExistingSlug != "" {
		m[keyExistingSlug] = c.ExistingSlug
	}
	return m
}
