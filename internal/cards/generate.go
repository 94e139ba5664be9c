package cards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/careervibe/internal/engine"
	"github.com/kalambet/careervibe/internal/market"
)

const generateTemperature = 0.9

// Options carries the user's preferences into card generation.
type Options struct {
	CompanySize    string
	Location       string
	Specialization string
	Motivation     string
	WorkStyle      string
	// Description is the user's own wording of what the profession means to them.
	Description string
	// GenerateAudio is accepted for API compatibility. Audio is not produced.
	GenerateAudio bool
	// FastMode skips the market lookup and returns content only.
	FastMode bool
	// Progress, when set, receives human-readable stage updates (0-100).
	Progress func(message string, percent int)
}

func (o Options) progress(msg string, pct int) {
	if o.Progress != nil {
		o.Progress(msg, pct)
	}
}

func (s *Store) generate(ctx context.Context, profession, level, company string, opts Options) (Card, error) {
	if report := opts.Progress; report != nil {
		var mu sync.Mutex
		opts.Progress = func(msg string, pct int) {
			mu.Lock()
			defer mu.Unlock()
			report(msg, pct)
		}
	}
	opts.progress("Начинаю генерацию карточки...", 0)

	var card Card
	stats := market.UnknownStats()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts.progress("Генерирую текстовый контент...", 10)
		var err error
		card, err = s.generateContent(gctx, profession, level, company, opts)
		return err
	})
	if !opts.FastMode && s.stats != nil {
		g.Go(func() error {
			stats = s.stats.Stats(gctx, profession)
			opts.progress("Получаю статистику вакансий с HH.ru...", 60)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Card{}, err
	}

	card.Slug = Slug(profession)
	if card.Profession == "" {
		card.Profession = profession
	}
	if card.Level == "" {
		card.Level = level
	}
	if card.Company == "" {
		card.Company = company
	}
	card.applyStats(stats)
	if card.Images == nil {
		card.Images = []string{}
	}
	card.IsIT = IsITProfession(profession)
	card.CompanySize = opts.CompanySize
	card.Location = opts.Location
	card.Specialization = opts.Specialization
	card.Description = opts.Description
	card.GeneratedAt = s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")

	opts.progress("Карточка готова ✅", 100)
	return card, nil
}

func (s *Store) generateContent(ctx context.Context, profession, level, company string, opts Options) (Card, error) {
	if s.gen == nil {
		return Card{}, errors.New("no generator configured")
	}

	var c Card
	if err := engine.GenerateJSON(ctx, s.gen, cardPrompt(profession, level, company, opts), generateTemperature, &c); err != nil {
		return Card{}, err
	}
	if len(c.Schedule) == 0 {
		return Card{}, errors.New("generated card has no schedule")
	}
	return c, nil
}

func cardPrompt(profession, level, company string, opts Options) string {
	var ctxLines []string
	if opts.Description != "" {
		ctxLines = append(ctxLines, "- Как пользователь понимает профессию: "+opts.Description)
	}
	if opts.Specialization != "" {
		ctxLines = append(ctxLines, "- Специализация: "+opts.Specialization)
	}
	if opts.CompanySize != "" {
		ctxLines = append(ctxLines, "- Размер компании: "+opts.CompanySize)
	}
	if opts.Location != "" {
		ctxLines = append(ctxLines, "- Локация: "+opts.Location)
	}
	if opts.WorkStyle != "" {
		ctxLines = append(ctxLines, "- Формат работы: "+opts.WorkStyle)
	}
	if opts.Motivation != "" {
		ctxLines = append(ctxLines, "- Что важно в работе: "+opts.Motivation)
	}
	userCtx := ""
	if len(ctxLines) > 0 {
		userCtx = "\nПредпочтения пользователя:\n" + strings.Join(ctxLines, "\n") + "\n"
	}

	return fmt.Sprintf(`Создай детальную карточку профессии для "%s" уровня %s в %s.
%s
ВАЖНЫЕ ТРЕБОВАНИЯ:
- schedule: ровно 6 событий за рабочий день (с 10:00 до 18:00)
- stack: 8-10 технологий/инструментов конкретно для этой профессии
- benefits: ровно 4 пункта с конкретными цифрами и метриками
- careerPath: ровно 4 этапа карьеры с реальными зарплатами в рублях
- skills: ровно 5 ключевых скиллов с уровнем от 40 до 90
- dialog: реалистичный диалог с коллегой/клиентом
- displayLabels.level: как назвать "уровень" для этой профессии (например "Разряд" для рабочих профессий или "Уровень")
- Всё на русском языке
- Эмоционально, живо, с деталями атмосферы
- Используй разные эмодзи для каждого события в schedule
- В description используй цитаты или короткие фразы из рабочего процесса

Ответь ТОЛЬКО в формате JSON:
{
  "profession": "...",
  "level": "...",
  "company": "...",
  "schedule": [{"time": "10:00", "title": "...", "emoji": "...", "description": "...", "detail": "..."}],
  "stack": ["..."],
  "benefits": [{"icon": "...", "text": "..."}],
  "careerPath": [{"level": "...", "years": "...", "salary": "..."}],
  "skills": [{"name": "...", "level": 70}],
  "dialog": {"message": "...", "options": ["...", "..."], "response": "..."},
  "displayLabels": {"level": "..."}
}`, profession, level, company, userCtx)
}
