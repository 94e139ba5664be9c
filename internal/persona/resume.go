package persona

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/kalambet/careervibe/internal/engine"
)

// maxResumeRunes bounds how much résumé text is sent to the model.
const maxResumeRunes = 8000

// ErrEmptyResume is returned when a document holds no extractable text.
var ErrEmptyResume = errors.New("resume contains no text")

// ExtractText returns the plain text of a PDF document.
func ExtractText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", ErrEmptyResume
	}
	return text, nil
}

// ImportResume infers a persona delta from résumé text. Unlike Detect it
// returns the error, since the caller asked for this explicitly.
func ImportResume(ctx context.Context, gen engine.Generator, text string) (Persona, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Persona{}, ErrEmptyResume
	}
	if utf8.RuneCountInString(text) > maxResumeRunes {
		text = string([]rune(text)[:maxResumeRunes])
	}

	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Перед тобой текст резюме пользователя.

Резюме:
"""
%s
"""

Определи профиль пользователя. Ответь ТОЛЬКО в формате JSON:
{
  "experience": "junior/middle/senior/none",
  "currentRole": "текущая или последняя должность",
  "skills": ["навык1", "навык2"],
  "interests": ["интерес1", "интерес2"],
  "goals": ["цель1"]
}`, text)

	raw, err := gen.Generate(ctx, prompt, engine.Options{Temperature: detectTemperature, JSONMode: true})
	if err != nil {
		return Persona{}, fmt.Errorf("analyzing resume: %w", err)
	}
	r, err := engine.ParseJSON(raw)
	if err != nil {
		return Persona{}, fmt.Errorf("analyzing resume: %w", err)
	}
	return deltaFrom(r, Persona{}), nil
}
