package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/chat"
	"github.com/kalambet/careervibe/internal/intent"
	"github.com/kalambet/careervibe/internal/persona"
	"github.com/kalambet/careervibe/internal/subflow"
)

type fakeClassifier struct {
	res   intent.Result
	calls int
}

func (c *fakeClassifier) Classify(ctx context.Context, message string, history []chat.Message) intent.Result {
	c.calls++
	return c.res
}

type fakeDetector struct {
	delta persona.Persona
}

func (d fakeDetector) Detect(ctx context.Context, message string, history []chat.Message, current persona.Persona) persona.Persona {
	return d.delta
}

type fakeStore struct {
	cards    map[string]cards.Card
	genErr   error
	genCalls []string
	genOpts  []cards.Options
}

func newFakeStore() *fakeStore {
	return &fakeStore{cards: make(map[string]cards.Card)}
}

func (s *fakeStore) Get(slug string) (cards.Card, error) {
	c, ok := s.cards[slug]
	if !ok {
		return cards.Card{}, cards.ErrNotFound
	}
	return c, nil
}

func (s *fakeStore) Put(slug string, c cards.Card) error {
	s.cards[slug] = c
	return nil
}

func (s *fakeStore) Generate(ctx context.Context, profession, level, company string, opts cards.Options) (cards.Card, error) {
	s.genCalls = append(s.genCalls, profession+"|"+level+"|"+company)
	s.genOpts = append(s.genOpts, opts)
	if s.genErr != nil {
		return cards.Card{}, s.genErr
	}
	return cards.Card{Slug: cards.Slug(profession), Profession: profession, Level: level, Company: company}, nil
}

type fakeCatalog []cards.Ref

func (c fakeCatalog) MustList() []cards.Ref { return c }

// newTestOrchestrator wires an orchestrator without a generator, so every
// sub-flow answers with its static fallback.
func newTestOrchestrator(res intent.Result, store *fakeStore) (*Orchestrator, *fakeClassifier) {
	cl := &fakeClassifier{res: res}
	var cs subflow.CardStore
	if store != nil {
		cs = store
	}
	flows := subflow.New(nil, nil, cs, fakeCatalog{
		{Slug: "barista", Profession: "Бариста", Level: "Junior", Company: "кофейня"},
	})
	o := New(Config{
		Classifier:   cl,
		Detector:     fakeDetector{},
		Flows:        flows,
		Store:        cs,
		ShareBaseURL: "https://hh-vibe.ru/",
	})
	return o, cl
}

func assistant(meta chat.Metadata, refs ...cards.Ref) chat.Message {
	return chat.Message{Role: chat.RoleAssistant, Content: "...", Cards: refs, Metadata: meta}
}

func user(content string) chat.Message {
	return chat.Message{Role: chat.RoleUser, Content: content}
}

func routeName(t *testing.T, o *Orchestrator, req Request) string {
	t.Helper()
	tr := &turn{message: req.Message, history: req.History, state: ParseState(req.History)}
	if len(req.History) > 0 {
		tr.intent = o.classify(context.Background(), req.Message, req.History)
	}
	for _, r := range o.Routes() {
		if r.Match(tr) {
			return r.Name
		}
	}
	return ""
}

func ptr[T any](v T) *T { return &v }

func TestHandleGreeting(t *testing.T) {
	o, cl := newTestOrchestrator(intent.Result{Intent: intent.ShowImpact}, nil)

	got := o.Handle(context.Background(), Request{Message: "привет"})

	want := Response{
		Message: chat.ResponseMessage{
			Type:     chat.TypeButtons,
			Content:  greetingContent,
			Buttons:  greetingButtons,
			Metadata: chat.Metadata{keyGreeting: true},
		},
		Persona: persona.Persona{IsUncertain: ptr(false)},
		Stage:   chat.StageInitial,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Handle() mismatch (-want +got):\n%s", diff)
	}
	if cl.calls != 0 {
		t.Errorf("classifier calls = %d, want 0 on empty history", cl.calls)
	}
}

func TestGreetingReply(t *testing.T) {
	tests := []struct {
		message  string
		wantMeta string
		wantType chat.MessageType
		stage    chat.Stage
	}{
		{"🎯 Я уже знаю профессию", "", chat.TypeText, chat.StageInitial},
		{"🤔 Помоги мне выбрать", keyUncertainFlow, chat.TypeText, chat.StageClarifying},
		{"🎮 Прожить день в профессии", keyAwaitingGameDayProfession, chat.TypeText, chat.StageInitial},
		{"⚖️ Сравнить профессии", keyAwaitingCompare, chat.TypeText, chat.StageInitial},
		{"что-то непонятное", keyGreeting, chat.TypeButtons, chat.StageInitial},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			o, _ := newTestOrchestrator(intent.Fallback(), nil)
			got := o.Handle(context.Background(), Request{
				Message: tt.message,
				History: []chat.Message{assistant(chat.Metadata{keyGreeting: true}), user(tt.message)},
			})
			if got.Message.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", got.Message.Type, tt.wantType)
			}
			if got.Stage != tt.stage {
				t.Errorf("Stage = %q, want %q", got.Stage, tt.stage)
			}
			if tt.wantMeta != "" && !got.Message.Metadata.Bool(tt.wantMeta) {
				t.Errorf("Metadata = %v, want %s=true", got.Message.Metadata, tt.wantMeta)
			}
		})
	}
}

func TestGreetingReplyHelpMarksUncertain(t *testing.T) {
	o, _ := newTestOrchestrator(intent.Fallback(), nil)
	got := o.Handle(context.Background(), Request{
		Message: "Помоги мне выбрать",
		History: []chat.Message{assistant(chat.Metadata{keyGreeting: true})},
	})
	if !got.Persona.Uncertain() {
		t.Error("Persona.Uncertain() = false, want true")
	}
	if !strings.HasPrefix(got.Message.Content, "Окей, давай вместе найдем профессию") {
		t.Errorf("Content = %q, want the guided flow intro", got.Message.Content)
	}
	if step := got.Message.Metadata.Int(keyUncertainFlowStep); step != 0 {
		t.Errorf("uncertainFlowStep = %d, want 0", step)
	}
}

func TestGameDayTakesPriorityOverIntent(t *testing.T) {
	o, _ := newTestOrchestrator(intent.Result{Intent: intent.ShowImpact}, nil)
	history := []chat.Message{assistant(gameDayMeta(GameDay{Profession: "Бариста", Step: 2, Time: "11:00", Situation: "rush"}))}

	if name := routeName(t, o, Request{Message: "Сделать латте", History: history}); name != "game-day" {
		t.Fatalf("route = %q, want game-day", name)
	}

	got := o.Handle(context.Background(), Request{Message: "Сделать латте", History: history})
	want := chat.Metadata{
		keyGameDay:    true,
		keyProfession: "Бариста",
		keyStep:       3,
		keyTime:       "11:00",
		keySituation:  "rush",
		keyLastStep:   false,
	}
	if diff := cmp.Diff(want, got.Message.Metadata); diff != "" {
		t.Errorf("Metadata mismatch (-want +got):\n%s", diff)
	}
	if got.Message.Type != chat.TypeButtons || got.Stage != chat.StageClarifying {
		t.Errorf("Type, Stage = %q, %q, want buttons, clarifying", got.Message.Type, got.Stage)
	}
}

func TestGameDayFinishes(t *testing.T) {
	tests := []struct {
		name    string
		state   GameDay
		message string
	}{
		{"last step", GameDay{Profession: "Бариста", Step: 6, IsLastStep: true}, "Дальше"},
		{"user ends", GameDay{Profession: "Бариста", Step: 2}, "Завершить день"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _ := newTestOrchestrator(intent.Fallback(), nil)
			got := o.Handle(context.Background(), Request{
				Message: tt.message,
				History: []chat.Message{assistant(gameDayMeta(tt.state))},
			})
			wantContent, wantButtons := subflow.GameDaySummary("Бариста")
			want := chat.ResponseMessage{Type: chat.TypeText, Content: wantContent, Buttons: wantButtons}
			if diff := cmp.Diff(want, got.Message); diff != "" {
				t.Errorf("Message mismatch (-want +got):\n%s", diff)
			}
			if got.Stage != chat.StageShowingResults {
				t.Errorf("Stage = %q, want %q", got.Stage, chat.StageShowingResults)
			}
		})
	}
}

func TestAwaitingGameDayProfession(t *testing.T) {
	o, _ := newTestOrchestrator(intent.Fallback(), nil)
	got := o.Handle(context.Background(), Request{
		Message: "  Пилот  ",
		History: []chat.Message{assistant(chat.Metadata{keyAwaitingGameDayProfession: true})},
	})
	if p := got.Message.Metadata.String(keyProfession); p != "Пилот" {
		t.Errorf("profession = %q, want %q", p, "Пилот")
	}
	if step := got.Message.Metadata.Int(keyStep); step != 1 {
		t.Errorf("step = %d, want 1", step)
	}
}

func TestAwaitingCompare(t *testing.T) {
	history := []chat.Message{assistant(chat.Metadata{keyAwaitingCompare: true})}

	t.Run("two professions", func(t *testing.T) {
		o, _ := newTestOrchestrator(intent.Fallback(), nil)
		got := o.Handle(context.Background(), Request{Message: "Бариста, Массажист", History: history})
		if !strings.Contains(got.Message.Content, "Бариста") || !strings.Contains(got.Message.Content, "Массажист") {
			t.Errorf("Content = %q, want both professions", got.Message.Content)
		}
		if got.Stage != chat.StageShowingResults {
			t.Errorf("Stage = %q, want %q", got.Stage, chat.StageShowingResults)
		}
	})

	t.Run("one profession", func(t *testing.T) {
		o, _ := newTestOrchestrator(intent.Fallback(), nil)
		got := o.Handle(context.Background(), Request{Message: "Бариста", History: history})
		if !got.Message.Metadata.Bool(keyAwaitingCompare) {
			t.Errorf("Metadata = %v, want awaiting compare", got.Message.Metadata)
		}
		if got.Stage != chat.StageInitial {
			t.Errorf("Stage = %q, want %q", got.Stage, chat.StageInitial)
		}
	})
}

func TestUncertainFlowStoresAnswers(t *testing.T) {
	tests := []struct {
		qtype string
		check func(p persona.Persona) bool
	}{
		{subflow.QuestionInterests, func(p persona.Persona) bool { return len(p.Interests) == 1 && p.Interests[0] == "ответ" }},
		{subflow.QuestionWorkStyle, func(p persona.Persona) bool { return p.WorkStyle == "ответ" }},
		{subflow.QuestionValues, func(p persona.Persona) bool { return p.Values == "ответ" }},
		{subflow.QuestionSkills, func(p persona.Persona) bool { return len(p.Skills) == 1 && p.Skills[0] == "ответ" }},
		{"situation", func(p persona.Persona) bool { return len(p.Interests) == 1 && p.Interests[0] == "ответ" }},
	}
	for _, tt := range tests {
		t.Run(tt.qtype, func(t *testing.T) {
			o, _ := newTestOrchestrator(intent.Fallback(), nil)
			got := o.Handle(context.Background(), Request{
				Message: " ответ ",
				History: []chat.Message{assistant(chat.Metadata{
					keyUncertainFlow:     true,
					keyUncertainFlowStep: 2,
					keyQuestionType:      tt.qtype,
				})},
				Persona: &persona.Persona{},
			})
			if !tt.check(got.Persona) {
				t.Errorf("Persona = %+v, answer not stored for %s", got.Persona, tt.qtype)
			}
			if step := got.Message.Metadata.Int(keyUncertainFlowStep); step != 3 {
				t.Errorf("uncertainFlowStep = %d, want 3", step)
			}
		})
	}
}

func TestUncertainFlowEndsWithSuggestion(t *testing.T) {
	store := newFakeStore()
	o, _ := newTestOrchestrator(intent.Fallback(), store)

	got := o.Handle(context.Background(), Request{
		Message: "Люблю решать задачи",
		History: []chat.Message{assistant(chat.Metadata{
			keyUncertainFlow:     true,
			keyUncertainFlowStep: subflow.UncertainFlowSteps - 1,
			keyQuestionType:      subflow.QuestionInterests,
		})},
	})

	if got.Message.Type != chat.TypeCards {
		t.Fatalf("Type = %q, want cards", got.Message.Type)
	}
	if diff := cmp.Diff([]string{"Да, понравилась!", "Не совсем, предложи другую"}, got.Message.Buttons); diff != "" {
		t.Errorf("Buttons mismatch (-want +got):\n%s", diff)
	}
	meta := got.Message.Metadata
	if !meta.Bool(keyAwaitingConfirmation) || meta.Bool(keyUncertainFlow) {
		t.Errorf("Metadata = %v, want awaiting confirmation outside the flow", meta)
	}
	if p := meta.String(keySuggestedProfession); p != "Разработчик" {
		t.Errorf("suggestedProfession = %q, want %q", p, "Разработчик")
	}
	if len(store.genCalls) != 1 {
		t.Fatalf("Generate calls = %d, want 1", len(store.genCalls))
	}

	// The suggestion is then confirmed.
	history := []chat.Message{got.Message.AsMessage()}
	confirmedResp := o.Handle(context.Background(), Request{Message: "Да, понравилась!", History: history})
	want := []cards.Ref{got.Message.Cards[0]}
	if diff := cmp.Diff(want, confirmedResp.Message.Cards); diff != "" {
		t.Errorf("confirmed Cards mismatch (-want +got):\n%s", diff)
	}
	if confirmedResp.Stage != chat.StageShowingResults {
		t.Errorf("Stage = %q, want %q", confirmedResp.Stage, chat.StageShowingResults)
	}

	rejected := o.Handle(context.Background(), Request{Message: "Не совсем, предложи другую", History: history})
	if !rejected.Message.Metadata.Bool(keyUncertainFlow) || rejected.Message.Metadata.Int(keyUncertainFlowStep) != 0 {
		t.Errorf("rejected Metadata = %v, want a restarted flow", rejected.Message.Metadata)
	}
	if !rejected.Persona.Uncertain() {
		t.Error("rejected Persona.Uncertain() = false, want true")
	}
}

func TestConfirmed(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"Да, понравилась!", true},
		{"да", true},
		{"Мне подходит", true},
		{"Не совсем, предложи другую", false},
		{"нет", false},
		{"Не понравилась", false},
		{"Давай другую", false},
	}
	for _, tt := range tests {
		if got := confirmed(tt.answer); got != tt.want {
			t.Errorf("confirmed(%q) = %v, want %v", tt.answer, got, tt.want)
		}
	}
}

func clarificationHistory(step string) []chat.Message {
	return []chat.Message{assistant(Clarification{Step: step, Profession: "Бариста", ExistingSlug: "barista"}.meta())}
}

func TestClarificationSteps(t *testing.T) {
	tests := []struct {
		name     string
		step     string
		message  string
		persona  persona.Persona
		wantStep string
		check    func(p persona.Persona) bool
	}{
		{
			name: "level skips work format when irrelevant", step: StepLevel, message: "Мидл (Middle)",
			wantStep: StepCompanySize,
			check:    func(p persona.Persona) bool { return p.Experience == persona.ExperienceMiddle },
		},
		{
			name: "remote work sets location", step: StepWorkFormat, message: "Удалёнка",
			wantStep: StepCompanySize,
			check: func(p persona.Persona) bool {
				return p.WorkStyle == persona.WorkRemote && p.Location == persona.LocationRemote
			},
		},
		{
			name: "company size asks location", step: StepCompanySize, message: "Стартап",
			wantStep: StepLocation,
			check:    func(p persona.Persona) bool { return p.CompanySize == persona.CompanyStartup },
		},
		{
			name: "company size skips location for remote", step: StepCompanySize, message: "Крупная корпорация",
			persona:  persona.Persona{Location: persona.LocationRemote},
			wantStep: StepSpecialization,
			check:    func(p persona.Persona) bool { return p.CompanySize == persona.CompanyLarge },
		},
		{
			name: "location", step: StepLocation, message: "Москва",
			wantStep: StepSpecialization,
			check:    func(p persona.Persona) bool { return p.Location == persona.LocationMoscow },
		},
		{
			name: "specialization", step: StepSpecialization, message: " Кофе навынос ",
			wantStep: StepMotivation,
			check:    func(p persona.Persona) bool { return p.Specialization == "Кофе навынос" },
		},
		{
			name: "unknown step restarts", step: "mystery", message: "что-то",
			wantStep: StepLevel,
			check:    func(persona.Persona) bool { return true },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _ := newTestOrchestrator(intent.Fallback(), newFakeStore())
			p := tt.persona
			got := o.Handle(context.Background(), Request{Message: tt.message, History: clarificationHistory(tt.step), Persona: &p})

			want := Clarification{Step: tt.wantStep, Profession: "Бариста", ExistingSlug: "barista"}.meta()
			if diff := cmp.Diff(want, got.Message.Metadata); diff != "" {
				t.Errorf("Metadata mismatch (-want +got):\n%s", diff)
			}
			if !tt.check(got.Persona) {
				t.Errorf("Persona = %+v, answer not applied", got.Persona)
			}
			if got.Stage != chat.StageClarifying {
				t.Errorf("Stage = %q, want %q", got.Stage, chat.StageClarifying)
			}
		})
	}
}

func TestClarificationGeneratesCard(t *testing.T) {
	store := newFakeStore()
	o, _ := newTestOrchestrator(intent.Fallback(), store)
	p := persona.Persona{
		Experience:     persona.ExperienceSenior,
		CompanySize:    persona.CompanyLarge,
		Location:       persona.LocationMoscow,
		WorkStyle:      persona.WorkOffice,
		Specialization: "Спешелти",
	}
	history := []chat.Message{assistant(Clarification{
		Step:        StepMotivation,
		Profession:  "Бариста",
		Description: "варит кофе",
	}.meta())}

	got := o.Handle(context.Background(), Request{Message: "Творчество", History: history, Persona: &p})

	if diff := cmp.Diff([]string{"Бариста|Senior|крупная корпорация"}, store.genCalls); diff != "" {
		t.Errorf("Generate calls mismatch (-want +got):\n%s", diff)
	}
	wantOpts := cards.Options{
		CompanySize:    persona.CompanyLarge,
		Location:       persona.LocationMoscow,
		Specialization: "Спешелти",
		Motivation:     "Творчество",
		WorkStyle:      persona.WorkOffice,
		Description:    "варит кофе",
	}
	if diff := cmp.Diff(wantOpts, store.genOpts[0]); diff != "" {
		t.Errorf("Generate options mismatch (-want +got):\n%s", diff)
	}

	stored, err := store.Get(cards.Slug("Бариста"))
	if err != nil {
		t.Fatalf("Get() error = %v, want stored card", err)
	}
	if stored.Preferences == nil || stored.Preferences.Motivation != "Творчество" {
		t.Errorf("stored Preferences = %+v, want motivation recorded", stored.Preferences)
	}

	for _, line := range []string{"• Уровень: Senior", "• Формат: Офис", "• Компания: крупная корпорация", "• Локация: Москва", "• Специализация: Спешелти"} {
		if !strings.Contains(got.Message.Content, line) {
			t.Errorf("Content = %q, want line %q", got.Message.Content, line)
		}
	}
	if got.Message.Type != chat.TypeCards || len(got.Message.Cards) != 1 {
		t.Errorf("Message = %+v, want one card", got.Message)
	}
	if !got.Message.Metadata.Bool(keyShowingCard) {
		t.Errorf("Metadata = %v, want %s", got.Message.Metadata, keyShowingCard)
	}
}

func TestClarificationGenerationError(t *testing.T) {
	store := newFakeStore()
	store.genErr = errors.New("llm down")
	o, _ := newTestOrchestrator(intent.Fallback(), store)

	got := o.Handle(context.Background(), Request{Message: "Деньги", History: clarificationHistory(StepMotivation)})

	if !strings.Contains(got.Message.Content, "llm down") {
		t.Errorf("Content = %q, want the error", got.Message.Content)
	}
	if got.Stage != chat.StageInitial {
		t.Errorf("Stage = %q, want %q", got.Stage, chat.StageInitial)
	}
}

func TestProfessionClarification(t *testing.T) {
	o, _ := newTestOrchestrator(intent.Fallback(), newFakeStore())
	got := o.Handle(context.Background(), Request{
		Message: "Тот, кто водит дирижабли",
		History: []chat.Message{assistant(chat.Metadata{keyProfessionClarification: true, keyProfessionToClarify: "Аэронавт"})},
	})
	want := Clarification{Step: StepLevel, Profession: "Аэронавт", Description: "Тот, кто водит дирижабли"}.meta()
	if diff := cmp.Diff(want, got.Message.Metadata); diff != "" {
		t.Errorf("Metadata mismatch (-want +got):\n%s", diff)
	}
	if len(got.Message.Buttons) == 0 || got.Message.Buttons[0] != "Без опыта" {
		t.Errorf("Buttons = %v, want Без опыта first", got.Message.Buttons)
	}
}

func TestSearchSingleCardStartsClarification(t *testing.T) {
	o, _ := newTestOrchestrator(intent.Result{
		Intent:    intent.SearchProfession,
		Extracted: intent.Extracted{Profession: "Бариста"},
	}, newFakeStore())

	got := o.Handle(context.Background(), Request{Message: "Хочу быть бариста", History: []chat.Message{user("привет")}})

	want := Clarification{Step: StepLevel, Profession: "Бариста", ExistingSlug: "barista"}.meta()
	if diff := cmp.Diff(want, got.Message.Metadata); diff != "" {
		t.Errorf("Metadata mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(got.Message.Content, `Отлично! Я нашел профессию "Бариста"`) {
		t.Errorf("Content = %q", got.Message.Content)
	}
}

func TestSearchUnknownProfessionAsksFirst(t *testing.T) {
	o, _ := newTestOrchestrator(intent.Result{
		Intent:    intent.SearchProfession,
		Extracted: intent.Extracted{Profession: "Аэронавт"},
	}, newFakeStore())

	got := o.Handle(context.Background(), Request{Message: "Аэронавт", History: []chat.Message{user("привет")}})

	want := chat.Metadata{keyProfessionClarification: true, keyProfessionToClarify: "Аэронавт"}
	if diff := cmp.Diff(want, got.Message.Metadata); diff != "" {
		t.Errorf("Metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestShareAndSave(t *testing.T) {
	card := cards.Ref{Slug: "barista", Profession: "Бариста"}

	tests := []struct {
		name    string
		intent  intent.Intent
		history []chat.Message
		want    string
	}{
		{"share", intent.ShareCard, []chat.Message{assistant(nil, card)}, "https://hh-vibe.ru/profession/barista"},
		{"share without card", intent.ShareCard, []chat.Message{assistant(nil)}, "Сначала выбери профессию, которой хочешь поделиться"},
		{"save", intent.SaveCard, []chat.Message{assistant(nil, card)}, "/profession/barista"},
		{"save without card", intent.SaveCard, []chat.Message{assistant(nil)}, "Сначала выбери профессию, которую хочешь сохранить"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _ := newTestOrchestrator(intent.Result{Intent: tt.intent}, nil)
			got := o.Handle(context.Background(), Request{Message: "давай", History: tt.history})
			if !strings.Contains(got.Message.Content, tt.want) {
				t.Errorf("Content = %q, want it to contain %q", got.Message.Content, tt.want)
			}
			if got.Stage != chat.StageShowingResults {
				t.Errorf("Stage = %q, want %q", got.Stage, chat.StageShowingResults)
			}
		})
	}
}

func TestIntentProfession(t *testing.T) {
	tests := []struct {
		name string
		t    turn
		want string
	}{
		{"extracted", turn{intent: intent.Result{Extracted: intent.Extracted{Profession: " Пилот "}}, last: assistant(nil, cards.Ref{Profession: "Бариста"})}, "Пилот"},
		{"last card", turn{last: assistant(nil, cards.Ref{Profession: "Бариста"})}, "Бариста"},
		{"default", turn{}, DefaultProfession},
	}
	for _, tt := range tests {
		if got := tt.t.profession(); got != tt.want {
			t.Errorf("%s: profession() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestUncertainRoutes(t *testing.T) {
	t.Run("short history asks", func(t *testing.T) {
		o, _ := newTestOrchestrator(intent.Result{Intent: intent.Uncertain}, nil)
		got := o.Handle(context.Background(), Request{Message: "не знаю", History: []chat.Message{user("привет")}})
		if got.Message.Type != chat.TypeButtons || got.Stage != chat.StageClarifying {
			t.Errorf("Type, Stage = %q, %q, want buttons, clarifying", got.Message.Type, got.Stage)
		}
	})

	t.Run("long history suggests", func(t *testing.T) {
		o, _ := newTestOrchestrator(intent.Result{Intent: intent.Uncertain}, nil)
		history := []chat.Message{user("1"), assistant(nil), user("2")}
		got := o.Handle(context.Background(), Request{Message: "не знаю", History: history})
		if got.Message.Type != chat.TypeCards || !strings.HasSuffix(got.Message.Content, chooseAny) {
			t.Errorf("Message = %+v, want suggestions", got.Message)
		}
	})

	t.Run("uncertain persona", func(t *testing.T) {
		o, _ := newTestOrchestrator(intent.Result{Intent: intent.GeneralChat}, nil)
		got := o.Handle(context.Background(), Request{
			Message: "ну не знаю",
			History: []chat.Message{user("привет")},
			Persona: &persona.Persona{IsUncertain: ptr(true)},
		})
		if got.Message.Type != chat.TypeButtons || got.Stage != chat.StageClarifying {
			t.Errorf("Type, Stage = %q, %q, want buttons, clarifying", got.Message.Type, got.Stage)
		}
	})
}

func TestGeneralChatFallsBack(t *testing.T) {
	o, _ := newTestOrchestrator(intent.Result{Intent: intent.GeneralChat}, nil)
	got := o.Handle(context.Background(), Request{Message: "как дела?", History: []chat.Message{user("привет")}})
	if got.Message.Content != FallbackContent {
		t.Errorf("Content = %q, want %q", got.Message.Content, FallbackContent)
	}
}

func TestDetectedPersonaIsMerged(t *testing.T) {
	o, _ := newTestOrchestrator(intent.Result{Intent: intent.GeneralChat}, nil)
	o.detector = fakeDetector{delta: persona.Persona{Interests: []string{"музыка"}, Location: persona.LocationSPb}}

	got := o.Handle(context.Background(), Request{
		Message: "Я из Питера и люблю музыку",
		History: []chat.Message{user("привет")},
		Persona: &persona.Persona{Interests: []string{"спорт"}},
	})
	want := persona.Persona{Interests: []string{"спорт", "музыка"}, Location: persona.LocationSPb}
	if diff := cmp.Diff(want, got.Persona); diff != "" {
		t.Errorf("Persona mismatch (-want +got):\n%s", diff)
	}
}

func TestRoutesOrder(t *testing.T) {
	o, _ := newTestOrchestrator(intent.Fallback(), nil)
	var got []string
	for _, r := range o.Routes() {
		got = append(got, r.Name)
	}
	want := []string{
		"greeting", "greeting-reply", "game-day",
		"awaiting-game-day-profession", "awaiting-compare-professions",
		"uncertain-flow", "confirmation",
		"show_impact", "show_similar", "show_tasks", "show_career_details",
		"explain_levels", "save_card", "share_card", "compare_professions", "game_day",
		"clarification", "profession-clarification", "uncertain",
		"search", "clarification-intent", "general-chat",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Routes() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseState(t *testing.T) {
	ref := cards.Ref{Slug: "barista", Profession: "Бариста"}
	tests := []struct {
		name    string
		history []chat.Message
		want    State
	}{
		{"empty", nil, Idle{}},
		{"greeting", []chat.Message{assistant(chat.Metadata{keyGreeting: true})}, Greeting{}},
		{
			"game day defaults",
			[]chat.Message{assistant(chat.Metadata{keyGameDay: true, keyProfession: "Бариста"})},
			GameDay{Profession: "Бариста", Step: 1, Time: "09:00", Situation: "start"},
		},
		{"game day without profession", []chat.Message{assistant(chat.Metadata{keyGameDay: true})}, Idle{}},
		{
			"uncertain flow from json numbers",
			[]chat.Message{assistant(chat.Metadata{keyUncertainFlow: true, keyUncertainFlowStep: float64(4), keyQuestionType: "values"})},
			UncertainFlow{Step: 4, QuestionType: "values"},
		},
		{
			"confirmation",
			[]chat.Message{assistant(chat.Metadata{
				keyUncertainFlow:        false,
				keyAwaitingConfirmation: true,
				keySuggestedProfession:  "Бариста",
				keyProfessionCard:       ref,
			})},
			AwaitingConfirmation{SuggestedProfession: "Бариста", Card: &ref},
		},
		{
			"clarification",
			clarificationHistory(StepLocation),
			Clarification{Step: StepLocation, Profession: "Бариста", ExistingSlug: "barista"},
		},
		{
			"user message after assistant",
			[]chat.Message{assistant(chat.Metadata{keyGreeting: true}), user("ок")},
			Greeting{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseState(tt.history)); diff != "" {
				t.Errorf("ParseState() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
