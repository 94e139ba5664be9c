package subflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/market"
)

const (
	similarPageSize   = 30
	similarCandidates = 10
	similarMaxCards   = 4
)

// SimilarContext narrows the similar-professions search.
type SimilarContext struct {
	Level     string
	Skills    []string
	Interests []string
}

// CardList is a message body plus the cards to show with it.
type CardList struct {
	Content string
	Cards   []cards.Ref
}

// ShowSimilar suggests up to four professions close to profession, drawing
// on the catalog and on titles mined from live listings.
func (f *Flows) ShowSimilar(ctx context.Context, profession string, sc SimilarContext) CardList {
	catalog := f.listCatalog()

	var mined []market.Candidate
	if res, ok := f.search(ctx, profession, similarPageSize); ok {
		mined = market.CandidateTitles(res.Items, profession, similarCandidates)
		f.logger.Debug("similar professions mined", "profession", profession, "count", len(mined))
	}

	var ctxLines string
	ctxLines += optLine("Уровень", sc.Level)
	ctxLines += optLine("Навыки", strings.Join(sc.Skills, ", "))
	ctxLines += optLine("Интересы", strings.Join(sc.Interests, ", "))

	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Найди 3-4 профессии, похожие на "%[1]s".

Контекст пользователя:
%[2]s
Доступные готовые карточки профессий:
%[3]s

Похожие профессии из HeadHunter (актуальный рынок):
%[4]s

Выбери 3-4 профессии, которые:
- Имеют схожие навыки с "%[1]s"
- Похожи по типу работы
- Могут быть интересны специалисту из "%[1]s"
- Приоритет: готовые карточки, но можно включить профессии из HH если они релевантны

Формат JSON:
{
  "content": "Краткое объяснение почему эти профессии похожи и почему могут заинтересовать (2-3 предложения)",
  "selectedProfessions": [
    {
      "name": "название профессии",
      "source": "existing" или "hh",
      "slug": "slug если source=existing, иначе null",
      "reason": "почему эта профессия похожа (1 предложение)"
    }
  ]
}`, profession, ctxLines, catalogLines(catalog, true), candidateLines(mined))

	var out struct {
		Content  string      `json:"content"`
		Selected []selection `json:"selectedProfessions"`
	}
	if !f.askJSON(ctx, "similar", prompt, 0.5, &out) {
		return CardList{
			Content: fmt.Sprintf("Вот несколько интересных профессий, похожих на %s:", profession),
			Cards:   firstN(catalog, 3),
		}
	}

	level := orDefault(sc.Level, "Middle")
	refs := resolveSelections(out.Selected, catalog, level)
	if len(refs) > similarMaxCards {
		refs = refs[:similarMaxCards]
	}
	return CardList{
		Content: orDefault(out.Content, fmt.Sprintf("Вот профессии, похожие на %s:", profession)),
		Cards:   refs,
	}
}

// selection is one LLM pick among catalog and market candidates.
type selection struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Slug   string `json:"slug"`
	Reason string `json:"reason"`
}

// resolveSelections maps picks onto catalog refs, or virtual refs for
// market names. Catalog picks with unknown slugs are dropped.
func resolveSelections(sel []selection, catalog []cards.Ref, level string) []cards.Ref {
	var refs []cards.Ref
	for _, s := range sel {
		switch {
		case s.Source == "existing" && s.Slug != "":
			if r, ok := cards.FindSlug(catalog, s.Slug); ok {
				refs = append(refs, r)
			}
		case s.Source == "hh" && strings.TrimSpace(s.Name) != "":
			refs = append(refs, cards.VirtualRef(s.Name, level, DefaultCompany))
		}
	}
	return refs
}

func candidateLines(cs []market.Candidate) string {
	var sb strings.Builder
	for i, c := range cs {
		fmt.Fprintf(&sb, "%d. %s (%d вакансий)\n", i+1, c.Name, c.Count)
	}
	return strings.TrimRight(sb.String(), "\n")
}
