package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/chat"
	"github.com/kalambet/careervibe/internal/dialogue"
	"github.com/kalambet/careervibe/internal/intent"
	"github.com/kalambet/careervibe/internal/market"
	"github.com/kalambet/careervibe/internal/persona"
	"github.com/kalambet/careervibe/internal/subflow"
)

// professionsURI is the catalog resource.
const professionsURI = "careervibe://professions"

// MCPFlows is the subset of the sub-flow generators exposed as tools.
// Implemented by subflow.Flows.
type MCPFlows interface {
	Search(ctx context.Context, query string, ex intent.Extracted) subflow.Found
	Compare(ctx context.Context, first, second string) subflow.Comparison
}

// MCPMarket supplies market statistics. Implemented by market.Client.
type MCPMarket interface {
	Stats(ctx context.Context, profession string) market.Stats
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Chat    Chatter
	Cards   CardStore
	Catalog CardLister
	Flows   MCPFlows
	Market  MCPMarket
}

// NewMCPServer creates an MCP server exposing profession search, cards,
// comparison, market statistics and the chat itself.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"careervibe",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("careervibe: career advice, profession cards and job market statistics for the Russian market."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("search_professions",
			mcp.WithDescription("Find professions matching a free-form query in the catalog and on the job market."),
			mcp.WithString("query", mcp.Description("What the user is looking for"), mcp.Required()),
		),
		mcpSearchProfessions(deps),
	)

	s.AddTool(
		mcp.NewTool("get_profession_card",
			mcp.WithDescription("Return the full profession card for a slug."),
			mcp.WithString("slug", mcp.Description("Card slug, e.g. frontend-developer"), mcp.Required()),
		),
		mcpGetCard(deps),
	)

	s.AddTool(
		mcp.NewTool("compare_professions",
			mcp.WithDescription("Compare two professions on schedule, stress, skills, growth, salary and demand."),
			mcp.WithString("first", mcp.Description("First profession"), mcp.Required()),
			mcp.WithString("second", mcp.Description("Second profession"), mcp.Required()),
		),
		mcpCompare(deps),
	)

	s.AddTool(
		mcp.NewTool("market_stats",
			mcp.WithDescription("Vacancy count, salaries and competition for a profession."),
			mcp.WithString("profession", mcp.Description("Profession name"), mcp.Required()),
		),
		mcpMarketStats(deps),
	)

	s.AddTool(
		mcp.NewTool("chat",
			mcp.WithDescription("Send one message to the career advisor. History and persona are held by the caller."),
			mcp.WithString("message", mcp.Description("User message"), mcp.Required()),
			mcp.WithString("history_json", mcp.Description("JSON array of previous messages as returned by earlier calls")),
			mcp.WithString("persona_json", mcp.Description("JSON persona as returned by the previous call")),
		),
		mcpChat(deps),
	)

	s.AddResource(
		mcp.NewResource(
			professionsURI,
			"Profession Catalog",
			mcp.WithResourceDescription("All generated profession cards (references only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfessions(deps),
	)

	return s
}

type foundResult struct {
	Content              string      `json:"content"`
	Cards                []cards.Ref `json:"cards"`
	ShouldGenerate       bool        `json:"shouldGenerate,omitempty"`
	ProfessionToGenerate string      `json:"professionToGenerate,omitempty"`
}

func mcpSearchProfessions(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil || query == "" {
			return mcpError("query is required"), nil
		}

		found := deps.Flows.Search(ctx, query, intent.Extracted{})
		res := foundResult{
			Content:              found.Content,
			Cards:                found.Cards,
			ShouldGenerate:       found.ShouldGenerate,
			ProfessionToGenerate: found.ProfessionToGenerate,
		}
		if res.Cards == nil {
			res.Cards = []cards.Ref{}
		}
		return mcpJSON(res), nil
	}
}

func mcpGetCard(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		slug, err := req.RequireString("slug")
		if err != nil || slug == "" {
			return mcpError("slug is required"), nil
		}

		card, err := deps.Cards.Get(slug)
		if errors.Is(err, cards.ErrNotFound) {
			return mcpError(fmt.Sprintf("no card for %q", slug)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load card: %v", err)), nil
		}
		return mcpJSON(card), nil
	}
}

func mcpCompare(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		first, err := req.RequireString("first")
		if err != nil || first == "" {
			return mcpError("first is required"), nil
		}
		second, err := req.RequireString("second")
		if err != nil || second == "" {
			return mcpError("second is required"), nil
		}

		return mcpText(deps.Flows.Compare(ctx, first, second).Text()), nil
	}
}

func mcpMarketStats(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		profession, err := req.RequireString("profession")
		if err != nil || profession == "" {
			return mcpError("profession is required"), nil
		}
		return mcpJSON(deps.Market.Stats(ctx, profession)), nil
	}
}

func mcpChat(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		creq := dialogue.Request{Message: message}
		if raw := req.GetString("history_json", ""); raw != "" {
			var history []chat.Message
			if err := json.Unmarshal([]byte(raw), &history); err != nil {
				return mcpError(fmt.Sprintf("invalid history_json: %v", err)), nil
			}
			creq.History = history
		}
		if raw := req.GetString("persona_json", ""); raw != "" {
			var p persona.Persona
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				return mcpError(fmt.Sprintf("invalid persona_json: %v", err)), nil
			}
			creq.Persona = &p
		}

		return mcpJSON(deps.Chat.Handle(ctx, creq)), nil
	}
}

func mcpResourceProfessions(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		refs, err := deps.Catalog.List()
		if err != nil {
			return nil, fmt.Errorf("failed to list professions: %w", err)
		}
		if refs == nil {
			refs = []cards.Ref{}
		}

		b, err := json.Marshal(refs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal professions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
