package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/clusterforge/forgectl/guidance"
	"github.com/clusterforge/forgectl/observability"
	"github.com/clusterforge/forgectl/provider"
	"github.com/clusterforge/forgectl/synthesis"
)

var (
	flagInstructions       string
	flagBackend            string
	flagModel              string
	flagBudget             int
	flagOut                string
	flagSchemaDir          string
	flagGuidance           []string
	flagAllowInvalidFinish bool
)

// artifactDef names one document a generate subcommand produces.
type artifactDef struct {
	name     string
	required bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate platform configuration documents",
}

var generateProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Generate a pipeline profile and its evaluation suite",
	Long: `Runs a synthesis session producing two documents: the pipeline profile
and its evaluation suite. Both must validate against their schemas for the
session to complete cleanly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, []artifactDef{
			{name: "profile", required: true},
			{name: "evals", required: true},
		}, "profile.md")
	},
}

var generateReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate an analysis report document",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, []artifactDef{
			{name: "report", required: true},
		}, "report.md")
	},
}

func init() {
	pf := generateCmd.PersistentFlags()
	pf.StringVarP(&flagInstructions, "instructions", "i", "", "Task instructions: inline text, or @path to read a file (required)")
	pf.StringVar(&flagBackend, "backend", "", "Model backend: anthropic or openai")
	pf.StringVar(&flagModel, "model", "", "Model name")
	pf.IntVar(&flagBudget, "budget", 0, "Maximum backend calls for the session")
	pf.StringVar(&flagOut, "out", "", "Directory for generated documents")
	pf.StringVar(&flagSchemaDir, "schema-dir", "", "Directory of <name>.schema.json files overriding the built-in schemas")
	pf.StringSliceVar(&flagGuidance, "guidance", nil, "Guidance document paths overriding the built-in guidance")
	pf.BoolVar(&flagAllowInvalidFinish, "allow-invalid-finish", false, "Let the session finish while required documents are still invalid")

	generateCmd.AddCommand(generateProfileCmd)
	generateCmd.AddCommand(generateReportCmd)
}

func runGenerate(cmd *cobra.Command, artifacts []artifactDef, guidanceDoc string) error {
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)
	cfg.Provider.APIKey = os.Getenv("FORGE_API_KEY")

	instructions, err := resolveInstructions(flagInstructions)
	if err != nil {
		return err
	}

	specs, err := loadSpecs(cfg, artifacts)
	if err != nil {
		return err
	}

	docs, err := loadGuidance(cfg, guidanceDoc)
	if err != nil {
		return err
	}
	prompt := guidance.Assemble(instructions, docs...)

	backend, err := provider.New(cfg.Provider)
	if err != nil {
		return err
	}

	loop, err := synthesis.New(backend, prompt, cfg.Synthesis, specs,
		synthesis.WithObserver(buildObserver()))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, runErr := loop.Run(ctx)

	// Partial work survives every outcome, including hard failures.
	if result != nil {
		if err := writeArtifacts(cfg.Out, result.Artifacts); err != nil {
			if runErr != nil {
				return fmt.Errorf("%w (and writing artifacts failed: %v)", runErr, err)
			}
			return err
		}
		printSummary(cmd, cfg.Out, result)
	}
	if runErr != nil {
		return runErr
	}

	if !result.Clean() {
		return fmt.Errorf("session ended %s without all required documents valid", result.State)
	}
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config) {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Provider.Backend = flagBackend
	}
	if flags.Changed("model") {
		cfg.Provider.Model = flagModel
	}
	if flags.Changed("budget") {
		cfg.Synthesis.Budget = flagBudget
	}
	if flags.Changed("out") {
		cfg.Out = flagOut
	}
	if flags.Changed("schema-dir") {
		cfg.SchemaDir = flagSchemaDir
	}
	if flags.Changed("guidance") {
		cfg.Guidance = flagGuidance
	}
	if flags.Changed("allow-invalid-finish") {
		cfg.Synthesis.AllowInvalidFinish = flagAllowInvalidFinish
	}
}

// resolveInstructions accepts inline text or an @path reference.
func resolveInstructions(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("instructions are required: pass --instructions with text or @path")
	}
	if !strings.HasPrefix(raw, "@") {
		return raw, nil
	}

	path := raw[1:]
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read instructions %s: %w", path, err)
	}
	return string(data), nil
}

// loadSpecs resolves one schema per artifact, from --schema-dir when set and
// the embedded defaults otherwise.
func loadSpecs(cfg config, artifacts []artifactDef) ([]synthesis.ArtifactSpec, error) {
	specs := make([]synthesis.ArtifactSpec, 0, len(artifacts))
	for _, a := range artifacts {
		var (
			data []byte
			err  error
		)
		if cfg.SchemaDir != "" {
			path := filepath.Join(cfg.SchemaDir, a.name+".schema.json")
			data, err = os.ReadFile(path)
			if err != nil {
				err = fmt.Errorf("read schema %s: %w", path, err)
			}
		} else {
			data, err = assets.ReadFile("schemas/" + a.name + ".schema.json")
		}
		if err != nil {
			return nil, err
		}

		specs = append(specs, synthesis.ArtifactSpec{
			Name:     a.name,
			Schema:   string(data),
			Required: a.required,
		})
	}
	return specs, nil
}

func loadGuidance(cfg config, embedded string) ([]guidance.Doc, error) {
	if len(cfg.Guidance) > 0 {
		return guidance.LoadFiles(cfg.Guidance...)
	}
	return guidance.LoadFS(assets, "guidance/"+embedded)
}

func buildObserver() observability.Observer {
	progress := observability.NewWriterObserver(os.Stderr, observability.LevelInfo)
	if !flagVerbose {
		return progress
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	return observability.NewMulti(progress, observability.NewSlogObserver(logger))
}

// writeArtifacts persists every document that has content, valid or not.
func writeArtifacts(out string, artifacts []synthesis.Artifact) error {
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", out, err)
	}

	for _, a := range artifacts {
		if a.Text == "" {
			continue
		}
		path := filepath.Join(out, a.Name+".json")
		if err := os.WriteFile(path, []byte(a.Text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func printSummary(cmd *cobra.Command, out string, result *synthesis.Result) {
	w := cmd.OutOrStdout()

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "\n%s %s after %d turn(s)\n", bold("session:"), result.State, result.Iterations)
	if result.StopReason != "" {
		fmt.Fprintf(w, "%s %s\n", bold("stop reason:"), result.StopReason)
	}

	for _, a := range result.Artifacts {
		status := red("INVALID")
		if a.Valid {
			status = green("VALID")
		} else if a.Text == "" {
			status = yellow("NOT WRITTEN")
		}

		marker := ""
		if a.Required {
			marker = " (required)"
		}
		fmt.Fprintf(w, "  %-10s %s%s\n", a.Name, status, marker)
	}

	fmt.Fprintf(w, "%s %s\n", bold("output:"), out)
}
