package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/chat"
	"github.com/kalambet/careervibe/internal/config"
	"github.com/kalambet/careervibe/internal/dialogue"
	"github.com/kalambet/careervibe/internal/persona"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the career advisor",
	Long: `Start an interactive chat. History and persona stay on this side and
are sent with every message.

Type a button number to press it, /reset to start over, /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runChat(cmd.Context(), client, os.Stdin, os.Stdout)
	},
}

// chatSession is the client-held conversation state.
type chatSession struct {
	history []chat.Message
	persona *persona.Persona
	buttons []string
}

func (s *chatSession) send(ctx context.Context, c *apiClient, message string) (dialogue.Response, error) {
	resp, err := c.post(ctx, "/v1/chat", dialogue.Request{
		Message: message,
		History: s.history,
		Persona: s.persona,
	})
	if err != nil {
		return dialogue.Response{}, err
	}
	var out dialogue.Response
	if err := decodeJSON(resp, &out); err != nil {
		return dialogue.Response{}, err
	}

	if len(s.history) > 0 || message != "" {
		s.history = append(s.history, chat.Message{Role: chat.RoleUser, Content: message})
	}
	s.history = append(s.history, out.Message.AsMessage())
	p := out.Persona
	s.persona = &p
	s.buttons = out.Message.Buttons
	return out, nil
}

// resolve maps a button number to its label.
func (s *chatSession) resolve(input string) string {
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(s.buttons) {
		return s.buttons[n-1]
	}
	return input
}

func runChat(ctx context.Context, c *apiClient, in io.Reader, out io.Writer) error {
	s := &chatSession{}
	greet := func() error {
		resp, err := s.send(ctx, c, "")
		if err != nil {
			return err
		}
		printReply(out, resp.Message.Content, resp.Message.Buttons, resp.Message.Cards)
		return nil
	}
	if err := greet(); err != nil {
		return err
	}

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, colorize(colorBold, "> "))
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			s = &chatSession{}
			if err := greet(); err != nil {
				return err
			}
			continue
		}

		resp, err := s.send(ctx, c, s.resolve(line))
		if err != nil {
			printError("%v", err)
			continue
		}
		printReply(out, resp.Message.Content, resp.Message.Buttons, resp.Message.Cards)
	}
}

// --- cards ---

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List, show and generate profession cards",
}

var cardsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generated profession cards",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/v1/professions")
		if err != nil {
			return err
		}
		var refs []cards.Ref
		if err := decodeJSON(resp, &refs); err != nil {
			return err
		}
		if len(refs) == 0 {
			fmt.Println("No cards yet. Run `careervibe cards seed` to generate the starter set.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SLUG\tPROFESSION\tLEVEL\tCOMPANY")
		for _, r := range refs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Slug, r.Profession, r.Level, r.Company)
		}
		return tw.Flush()
	},
}

var cardsShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show a profession card as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/v1/professions/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		var card json.RawMessage
		if err := decodeJSON(resp, &card); err != nil {
			return err
		}
		return printJSON(os.Stdout, card)
	},
}

var cardsGenerateCmd = &cobra.Command{
	Use:   "generate <profession>",
	Short: "Generate a profession card",
	Long: `Generate a profession card, or return the cached one.

Examples:
  careervibe cards generate "Бариста" --level Junior --company кофейня
  careervibe cards generate "DevOps Engineer" --async`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("level")
		company, _ := cmd.Flags().GetString("company")
		fast, _ := cmd.Flags().GetBool("fast")
		async, _ := cmd.Flags().GetBool("async")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/cards", map[string]any{
			"profession": args[0],
			"level":      level,
			"company":    company,
			"fastMode":   fast,
			"async":      async,
		})
		if err != nil {
			return err
		}

		var result map[string]any
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		if result["status"] == "queued" {
			printSuccess("Queued job %v", result["id"])
			return nil
		}
		if result["cached"] == true {
			printSuccess("Found cached card %v", result["slug"])
		} else {
			printSuccess("Generated card %v", result["slug"])
		}
		return nil
	},
}

var cardsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Queue generation of the starter professions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/jobs/seed", nil)
		if err != nil {
			return err
		}
		var result struct {
			IDs []string `json:"ids"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		for i, id := range result.IDs {
			if i < len(cards.DefaultSeeds) {
				printStatus(cards.DefaultSeeds[i].Profession, "%s", id)
			}
		}
		printSuccess("Queued %d jobs", len(result.IDs))
		return nil
	},
}

var cardsJobCmd = &cobra.Command{
	Use:   "job <id>",
	Short: "Show the status of a generation job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/v1/jobs/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		var job struct {
			Status      string `json:"status"`
			Attempts    int    `json:"attempts"`
			MaxAttempts int    `json:"maxAttempts"`
			LastError   string `json:"lastError"`
		}
		if err := decodeJSON(resp, &job); err != nil {
			return err
		}
		printStatus("Status", "%s", job.Status)
		printStatus("Attempts", "%d/%d", job.Attempts, job.MaxAttempts)
		if job.LastError != "" {
			printStatus("Last error", "%s", job.LastError)
		}
		return nil
	},
}

func init() {
	cardsGenerateCmd.Flags().String("level", "", "career level (default Middle)")
	cardsGenerateCmd.Flags().String("company", "", "company type (default стартап)")
	cardsGenerateCmd.Flags().Bool("fast", false, "skip the market lookup")
	cardsGenerateCmd.Flags().Bool("async", false, "queue generation instead of waiting")
	cardsCmd.AddCommand(cardsListCmd, cardsShowCmd, cardsGenerateCmd, cardsSeedCmd, cardsJobCmd)
}

// --- persona ---

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Build a persona for chat",
}

var personaImportCmd = &cobra.Command{
	Use:   "import <resume>",
	Short: "Infer a persona from a résumé (PDF or .txt)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, _ := cmd.Flags().GetString("persona")
		output, _ := cmd.Flags().GetString("output")

		fields := map[string]string{}
		if base != "" {
			data, err := os.ReadFile(base)
			if err != nil {
				return fmt.Errorf("reading persona: %w", err)
			}
			fields["persona"] = string(data)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.upload(cmd.Context(), "/v1/persona/resume", "resume", args[0], fields)
		if err != nil {
			return err
		}
		var p json.RawMessage
		if err := decodeJSON(resp, &p); err != nil {
			return err
		}

		if output == "" {
			return printJSON(os.Stdout, p)
		}
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		if err := printJSON(f, p); err != nil {
			return err
		}
		printSuccess("Persona written to %s", output)
		return nil
	},
}

func init() {
	personaImportCmd.Flags().String("persona", "", "existing persona JSON file to merge into")
	personaImportCmd.Flags().String("output", "", "output file path (default: stdout)")
	personaCmd.AddCommand(personaImportCmd)
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored value so the default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configSetCmd.Long = "Set a configuration value. Valid keys:\n  " + strings.Join(config.ValidKeys(), "\n  ")
	configCmd.AddCommand(configShowCmd, configSetCmd, configUnsetCmd)
}
