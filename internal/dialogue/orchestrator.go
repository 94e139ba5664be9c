// Package dialogue turns one user message plus the client-held history into
// the next assistant message. It keeps no session state: the position in
// the conversation is recovered from the metadata of the last assistant
// message on every call.
package dialogue

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/chat"
	"github.com/kalambet/careervibe/internal/intent"
	"github.com/kalambet/careervibe/internal/persona"
	"github.com/kalambet/careervibe/internal/subflow"
)

// DefaultProfession is used by intent routes when neither the message nor
// the last shown card names a profession.
const DefaultProfession = "Frontend разработчик"

// FallbackContent replaces an empty reply.
const FallbackContent = "Как я могу помочь?"

// IntentClassifier classifies a message. Implemented by intent.Classifier.
type IntentClassifier interface {
	Classify(ctx context.Context, message string, history []chat.Message) intent.Result
}

// PersonaDetector infers a persona delta from a message. Implemented by
// persona.Detector.
type PersonaDetector interface {
	Detect(ctx context.Context, message string, history []chat.Message, current persona.Persona) persona.Persona
}

// Request is one chat turn as sent by the client.
type Request struct {
	Message string           `json:"message"`
	History []chat.Message   `json:"history"`
	Persona *persona.Persona `json:"persona,omitempty"`
}

// Response is the assistant's reply together with the updated persona.
type Response struct {
	Message chat.ResponseMessage `json:"message"`
	Persona persona.Persona      `json:"persona"`
	Stage   chat.Stage           `json:"stage"`
}

// Config wires an Orchestrator.
type Config struct {
	Classifier   IntentClassifier
	Detector     PersonaDetector
	Flows        *subflow.Flows
	Store        subflow.CardStore
	ShareBaseURL string
}

// Orchestrator routes chat turns to sub-flows.
type Orchestrator struct {
	classifier   IntentClassifier
	detector     PersonaDetector
	flows        *subflow.Flows
	store        subflow.CardStore
	shareBaseURL string
	logger       *slog.Logger
	routes       []Route
}

func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		classifier:   cfg.Classifier,
		detector:     cfg.Detector,
		flows:        cfg.Flows,
		store:        cfg.Store,
		shareBaseURL: strings.TrimRight(cfg.ShareBaseURL, "/"),
		logger:       slog.Default(),
	}
	o.routes = o.table()
	return o
}

// turn is everything a route needs to decide and answer.
type turn struct {
	message string
	history []chat.Message
	last    chat.Message
	state   State
	intent  intent.Result
	persona persona.Persona
}

// lastCard is the first card of the last assistant message, if any.
func (t *turn) lastCard() (cards.Ref, bool) {
	if len(t.last.Cards) == 0 {
		return cards.Ref{}, false
	}
	return t.last.Cards[0], true
}

// profession resolves the profession an intent route talks about: the
// extracted name, then the last shown card, then DefaultProfession.
func (t *turn) profession() string {
	if p := strings.TrimSpace(t.intent.Extracted.Profession); p != "" {
		return p
	}
	if c, ok := t.lastCard(); ok && c.Profession != "" {
		return c.Profession
	}
	return DefaultProfession
}

// Handle answers one turn. It never fails: every sub-flow degrades to a
// static reply, and an empty reply becomes FallbackContent.
func (o *Orchestrator) Handle(ctx context.Context, req Request) Response {
	t := &turn{
		message: req.Message,
		history: req.History,
		state:   ParseState(req.History),
	}
	if req.Persona != nil {
		t.persona = req.Persona.Clone()
	} else {
		t.persona.SetUncertain(false)
	}
	t.last, _ = chat.LastAssistant(req.History)

	if len(req.History) > 0 {
		t.intent = o.classify(ctx, req.Message, req.History)
		t.persona = persona.Merge(t.persona, o.detect(ctx, req.Message, req.History, t.persona))
		o.logger.Debug("turn classified", "intent", t.intent.Intent, "confidence", t.intent.Confidence)
	}

	for _, r := range o.routes {
		if !r.Match(t) {
			continue
		}
		o.logger.Debug("route selected", "route", r.Name)
		resp := r.Handle(ctx, t)
		if strings.TrimSpace(resp.Message.Content) == "" {
			resp.Message.Content = FallbackContent
		}
		return resp
	}

	return Response{
		Message: chat.ResponseMessage{Type: chat.TypeText, Content: FallbackContent},
		Persona: t.persona,
		Stage:   chat.StageInitial,
	}
}

func (o *Orchestrator) classify(ctx context.Context, message string, history []chat.Message) intent.Result {
	if o.classifier == nil {
		return intent.Fallback()
	}
	return o.classifier.Classify(ctx, message, history)
}

func (o *Orchestrator) detect(ctx context.Context, message string, history []chat.Message, current persona.Persona) persona.Persona {
	if o.detector == nil {
		return persona.Persona{}
	}
	return o.detector.Detect(ctx, message, history, current)
}

// reply builds a Response carrying the turn's persona.
func (t *turn) reply(msg chat.ResponseMessage, stage chat.Stage) Response {
	return Response{Message: msg, Persona: t.persona, Stage: stage}
}

func text(content string) chat.ResponseMessage {
	return chat.ResponseMessage{Type: chat.TypeText, Content: content}
}

func buttons(content string, b []string) chat.ResponseMessage {
	return chat.ResponseMessage{Type: chat.TypeButtons, Content: content, Buttons: b}
}

// textWithButtons is a text message with suggested follow-ups attached.
func textWithButtons(content string, b ...string) chat.ResponseMessage {
	return chat.ResponseMessage{Type: chat.TypeText, Content: content, Buttons: b}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
