package subflow

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/engine"
	"github.com/kalambet/careervibe/internal/intent"
)

// shortQueryRunes is the length under which a query is treated as a
// profession name.
const shortQueryRunes = 50

const (
	searchMarketLimit = 10
	foundContent      = "Вот что я нашел:"
)

// Found is the result of a profession search. ShouldGenerate asks the
// caller to clarify and then generate a card for ProfessionToGenerate.
type Found struct {
	Content              string
	Cards                []cards.Ref
	ShouldGenerate       bool
	ProfessionToGenerate string
}

func generateFor(name, content string) Found {
	return Found{Content: content, ShouldGenerate: true, ProfessionToGenerate: name}
}

// Search finds professions matching the user's query. A named profession is
// looked up directly and otherwise triggers generation. Free-form queries go
// through catalog matching, LLM slug selection and a market title search.
func (f *Flows) Search(ctx context.Context, query string, ex intent.Extracted) Found {
	catalog := f.listCatalog()
	trimmed := strings.TrimSpace(query)

	if name := strings.TrimSpace(ex.Profession); name != "" {
		if ref, ok := f.lookup(catalog, name); ok {
			return Found{Content: foundContent, Cards: []cards.Ref{ref}}
		}
		return generateFor(name, fmt.Sprintf(`Профессия "%s" не найдена в базе. Генерирую карточку...`, name))
	}

	short := trimmed != "" && utf8.RuneCountInString(trimmed) < shortQueryRunes
	if short {
		if ref, ok := f.lookup(catalog, trimmed); ok {
			return Found{Content: foundContent, Cards: []cards.Ref{ref}}
		}
		if partial := cards.FindPartial(catalog, trimmed); len(partial) > 0 {
			return Found{Content: foundContent, Cards: partial[:1]}
		}
	}

	lines := make([]string, len(catalog))
	for i, r := range catalog {
		lines[i] = fmt.Sprintf(`%d. "%s" -> slug: "%s" (%s, %s)`, i+1, r.Profession, r.Slug, r.Level, r.Company)
	}
	prompt := fmt.Sprintf(`Ты AI-ассистент для карьерного консультирования. Найди профессии, соответствующие запросу пользователя.

Запрос: "%s"
Извлеченная информация: %s

Доступные профессии (формат: название профессии -> slug):
%s

ВАЖНО: Если запрос пользователя точно соответствует названию профессии из списка, верни её slug. Если запрос похож на профессию из списка, верни соответствующий slug.

Ответь ТОЛЬКО в формате JSON:
{
  "content": "короткий комментарий о найденных профессиях",
  "professionSlugs": ["slug1", "slug2"]
}`, query, toJSON(ex), strings.Join(lines, "\n"))

	r, err := f.generateRaw(ctx, "search", prompt, 0.3)
	if err != nil {
		return Found{Content: foundContent, Cards: firstN(catalog, 2)}
	}
	content := orDefault(r.Get("content").String(), foundContent)

	slugs := engine.Strings(r.Get("professionSlugs"))
	var selected []cards.Ref
	for _, ref := range catalog {
		if slices.Contains(slugs, ref.Slug) {
			selected = append(selected, ref)
		}
	}
	if len(selected) > 0 {
		return Found{Content: content, Cards: selected}
	}

	if partial := cards.FindPartial(catalog, query); len(partial) > 0 {
		return Found{Content: content, Cards: firstN(partial, 3)}
	}

	if found, ok := f.searchMarket(ctx, query); ok {
		return found
	}

	if short {
		return generateFor(trimmed, fmt.Sprintf(`Ищу информацию о профессии "%s"...`, trimmed))
	}
	return Found{
		Content: "К сожалению, пока нет профессий, точно соответствующих твоему запросу. Вот что есть:",
		Cards:   firstN(catalog, 3),
	}
}

// lookup checks the card store by slug, then the catalog by exact name or
// slug.
func (f *Flows) lookup(catalog []cards.Ref, name string) (cards.Ref, bool) {
	if f.store != nil {
		if c, err := f.store.Get(cards.Slug(name)); err == nil {
			return c.Ref(), true
		}
	}
	return cards.FindExact(catalog, name)
}

// searchMarket mines listing titles for query and lets the LLM pick the
// closest names. Picks come back as virtual cards.
func (f *Flows) searchMarket(ctx context.Context, query string) (Found, bool) {
	if f.market == nil {
		return Found{}, false
	}
	f.logger.Info("searching market titles", "query", query)
	mined := f.market.FetchProfessions(ctx, []string{query}, searchMarketLimit)
	if len(mined) == 0 {
		return Found{}, false
	}

	prompt := fmt.Sprintf(`Из списка профессий выбери 1-3 наиболее точно соответствующих запросу пользователя "%s".

Доступные профессии из HeadHunter:
%s

Выбирай профессии, которые максимально точно соответствуют запросу.

Ответь ТОЛЬКО в формате JSON:
{
  "content": "короткое объяснение",
  "selectedNames": ["название профессии 1", "название профессии 2"]
}`, query, candidateLines(mined))

	r, err := f.generateRaw(ctx, "search_market", prompt, 0.3)
	if err != nil {
		return Found{}, false
	}
	names := engine.Strings(r.Get("selectedNames"))

	var refs []cards.Ref
	for _, c := range mined {
		if !slices.Contains(names, c.Name) {
			continue
		}
		ref := cards.VirtualRef(c.Name, "Middle", DefaultCompany)
		ref.VacanciesCount = c.Count
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		return Found{}, false
	}
	return Found{
		Content: orDefault(r.Get("content").String(), foundInMarket(len(refs), query)),
		Cards:   refs,
	}, true
}

func foundInMarket(n int, query string) string {
	noun := "профессии"
	if n == 1 {
		noun = "профессию"
	}
	return fmt.Sprintf(`Нашел %d %s по запросу "%s" в базе вакансий:`, n, noun, query)
}
