package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/intent"
	"github.com/kalambet/careervibe/internal/market"
	"github.com/kalambet/careervibe/internal/subflow"
)

// --- mocks ---

type mockFlows struct {
	found      subflow.Found
	query      string
	comparison subflow.Comparison
}

func (m *mockFlows) Search(_ context.Context, query string, _ intent.Extracted) subflow.Found {
	m.query = query
	return m.found
}

func (m *mockFlows) Compare(_ context.Context, first, second string) subflow.Comparison {
	c := m.comparison
	c.First, c.Second = first, second
	return c
}

type mockMarket struct{}

func (mockMarket) Stats(_ context.Context, profession string) market.Stats {
	avg := 90000
	return market.Stats{Vacancies: 321, AvgSalary: &avg, Competition: market.CompetitionLow}
}

// --- helpers ---

func newTestMCPDeps(cs ...cards.Card) (MCPDeps, *mockChatter, *mockFlows) {
	ch := &mockChatter{}
	fl := &mockFlows{}
	refs := make([]cards.Ref, 0, len(cs))
	for _, c := range cs {
		refs = append(refs, c.Ref())
	}
	return MCPDeps{
		Chat:    ch,
		Cards:   newMockCards(cs...),
		Catalog: &mockCatalog{refs: refs},
		Flows:   fl,
		Market:  mockMarket{},
	}, ch, fl
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func callTool(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := h(context.Background(), makeCallToolRequest(name, args))
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
	return result
}

// --- tests ---

func TestMCPTool_SearchProfessions(t *testing.T) {
	deps, _, fl := newTestMCPDeps()
	fl.found = subflow.Found{Content: "Вот что я нашел:", Cards: []cards.Ref{barista.Ref()}}

	result := callTool(t, mcpSearchProfessions(deps), "search_professions", map[string]any{"query": "кофе"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	if fl.query != "кофе" {
		t.Errorf("Search query = %q, want кофе", fl.query)
	}

	var got foundResult
	if err := json.Unmarshal([]byte(toolText(t, result)), &got); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(got.Cards) != 1 || got.Cards[0].Slug != "barista" {
		t.Errorf("cards = %+v, want [barista]", got.Cards)
	}
}

func TestMCPTool_SearchProfessions_Generate(t *testing.T) {
	deps, _, fl := newTestMCPDeps()
	fl.found = subflow.Found{Content: "Расскажи подробнее", ShouldGenerate: true, ProfessionToGenerate: "Сомелье"}

	text := toolText(t, callTool(t, mcpSearchProfessions(deps), "search_professions", map[string]any{"query": "сомелье"}))
	if !strings.Contains(text, `"professionToGenerate":"Сомелье"`) || !strings.Contains(text, `"cards":[]`) {
		t.Errorf("response = %s", text)
	}
}

func TestMCPTool_SearchProfessions_MissingQuery(t *testing.T) {
	deps, _, _ := newTestMCPDeps()
	result := callTool(t, mcpSearchProfessions(deps), "search_professions", map[string]any{})
	if !result.IsError {
		t.Error("expected error for missing query")
	}
}

func TestMCPTool_GetProfessionCard(t *testing.T) {
	deps, _, _ := newTestMCPDeps(barista)

	result := callTool(t, mcpGetCard(deps), "get_profession_card", map[string]any{"slug": "barista"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	var c cards.Card
	if err := json.Unmarshal([]byte(toolText(t, result)), &c); err != nil {
		t.Fatalf("failed to parse card: %v", err)
	}
	if c.Profession != "Бариста" {
		t.Errorf("profession = %q, want Бариста", c.Profession)
	}

	result = callTool(t, mcpGetCard(deps), "get_profession_card", map[string]any{"slug": "astronaut"})
	if !result.IsError {
		t.Error("expected error for unknown slug")
	}
}

func TestMCPTool_CompareProfessions(t *testing.T) {
	deps, _, fl := newTestMCPDeps()
	fl.comparison = subflow.Comparison{
		Content: "Обе профессии про людей.",
		Criteria: []subflow.Criterion{
			{Key: "schedule", Label: "📅 График", First: []string{"смены"}, Second: []string{"рейсы"}},
		},
	}

	result := callTool(t, mcpCompare(deps), "compare_professions", map[string]any{"first": "Бариста", "second": "Пилот"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	text := toolText(t, result)
	for _, want := range []string{"Бариста vs Пилот", "📅 График", "смены"} {
		if !strings.Contains(text, want) {
			t.Errorf("comparison missing %q: %s", want, text)
		}
	}

	result = callTool(t, mcpCompare(deps), "compare_professions", map[string]any{"first": "Бариста"})
	if !result.IsError {
		t.Error("expected error for missing second profession")
	}
}

func TestMCPTool_MarketStats(t *testing.T) {
	deps, _, _ := newTestMCPDeps()

	result := callTool(t, mcpMarketStats(deps), "market_stats", map[string]any{"profession": "Бариста"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	var st market.Stats
	if err := json.Unmarshal([]byte(toolText(t, result)), &st); err != nil {
		t.Fatalf("failed to parse stats: %v", err)
	}
	if st.Vacancies != 321 || st.AvgSalary == nil || *st.AvgSalary != 90000 {
		t.Errorf("stats = %+v", st)
	}
}

func TestMCPTool_Chat(t *testing.T) {
	deps, ch, _ := newTestMCPDeps()

	result := callTool(t, mcpChat(deps), "chat", map[string]any{
		"message":      "что дальше?",
		"history_json": `[{"role":"user","content":"привет"},{"role":"assistant","content":"Привет!"}]`,
		"persona_json": `{"experience":"middle"}`,
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	if len(ch.got.History) != 2 {
		t.Errorf("history length = %d, want 2", len(ch.got.History))
	}
	if ch.got.Persona == nil || ch.got.Persona.Experience != "middle" {
		t.Errorf("persona = %+v, want experience middle", ch.got.Persona)
	}
	if !strings.Contains(toolText(t, result), "echo: что дальше?") {
		t.Errorf("response = %s", toolText(t, result))
	}
}

func TestMCPTool_Chat_BadHistory(t *testing.T) {
	deps, _, _ := newTestMCPDeps()
	result := callTool(t, mcpChat(deps), "chat", map[string]any{"message": "hi", "history_json": "{"})
	if !result.IsError {
		t.Error("expected error for malformed history_json")
	}
}

func TestMCPResource_Professions(t *testing.T) {
	deps, _, _ := newTestMCPDeps(barista)
	contents, err := mcpResourceProfessions(deps)(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: professionsURI},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	var refs []cards.Ref
	if err := json.Unmarshal([]byte(tc.Text), &refs); err != nil {
		t.Fatalf("failed to parse refs: %v", err)
	}
	if len(refs) != 1 || refs[0].Slug != "barista" {
		t.Errorf("refs = %+v, want [barista]", refs)
	}
}
