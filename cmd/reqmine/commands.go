package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/reqmine/internal/config"
	"github.com/kalambet/reqmine/internal/mining"
	"github.com/kalambet/reqmine/internal/source"
)

// --- mine ---

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Start a requirement mining session",
	Long: `Start a requirement mining session from raw text, a file, or a URL.

Examples:
  reqmine mine --text "Analyze Q2 2024 revenue growth for our SaaS product"
  reqmine mine --file ./brief.pdf --domain fintech
  reqmine mine --url https://example.com/rfc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		file, _ := cmd.Flags().GetString("file")
		url, _ := cmd.Flags().GetString("url")
		domain, _ := cmd.Flags().GetString("domain")

		if text == "" && file == "" && url == "" {
			return fmt.Errorf("one of --text, --file, or --url is required")
		}

		var err error
		switch {
		case text != "":
			// as-is
		case file != "":
			text, err = source.FromFile(file)
			if err != nil {
				return err
			}
		case url != "":
			text, err = source.FromURL(cmd.Context(), &http.Client{Timeout: 15 * time.Second}, url)
			if err != nil {
				return err
			}
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]any{"text": text}
		if domain != "" {
			req["domain"] = domain
		}

		resp, err := client.post(cmd.Context(), "/v1/mine", req)
		if err != nil {
			return err
		}

		var result mining.MiningResult
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printResult(&result)
		return nil
	},
}

func init() {
	mineCmd.Flags().String("text", "", "raw request text")
	mineCmd.Flags().String("file", "", "file to read the request from (PDF or plain text)")
	mineCmd.Flags().String("url", "", "URL to fetch the request from")
	mineCmd.Flags().String("domain", "", "business domain hint")
}

// --- resume ---

var resumeCmd = &cobra.Command{
	Use:   "resume <session-id>",
	Short: "Resume a paused session with feedback",
	Long: `Resume a paused session with feedback.

Examples:
  reqmine resume abc123 --answer "Monthly revenue" --answer "Last two quarters"
  reqmine resume abc123 --confirm
  reqmine resume abc123 --reject --adjust "Split phase 2 into smaller steps"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		confirm, _ := cmd.Flags().GetBool("confirm")
		reject, _ := cmd.Flags().GetBool("reject")
		answers, _ := cmd.Flags().GetStringArray("answer")
		adjust, _ := cmd.Flags().GetString("adjust")

		if confirm && reject {
			return fmt.Errorf("--confirm and --reject are mutually exclusive")
		}
		if len(answers) == 0 && !confirm && !reject && adjust == "" {
			return fmt.Errorf("provide --answer, --confirm, or --reject")
		}

		fb := mining.FeedbackPayload{
			Confirmation: confirm,
			Responses:    answers,
			Adjustments:  adjust,
		}
		// The server falls back to the session's recorded feedback type
		// when the payload leaves it empty, so only clarification needs
		// to be explicit here.
		if len(answers) > 0 {
			fb.Type = mining.FeedbackClarification
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/sessions/"+sessionID+"/resume", fb)
		if err != nil {
			return err
		}

		var result mining.MiningResult
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printResult(&result)
		return nil
	},
}

func init() {
	resumeCmd.Flags().Bool("confirm", false, "accept the proposed strategy or blueprint")
	resumeCmd.Flags().Bool("reject", false, "reject the proposed result")
	resumeCmd.Flags().StringArray("answer", nil, "answer to a pending clarification question (repeatable, in order)")
	resumeCmd.Flags().String("adjust", "", "requested adjustments when rejecting")
}

// --- sessions ---

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect mining sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List checkpointed sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/sessions")
		if err != nil {
			return err
		}

		var payload struct {
			Sessions []string `json:"sessions"`
		}
		if err := decodeJSON(resp, &payload); err != nil {
			return err
		}

		if len(payload.Sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}
		for _, id := range payload.Sessions {
			fmt.Println(id)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the current state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/sessions/"+args[0])
		if err != nil {
			return err
		}

		var result mining.MiningResult
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printResult(&result)
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
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
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
