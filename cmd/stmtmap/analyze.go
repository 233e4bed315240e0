package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/statement-mapper/internal/cli"
	"github.com/Veraticus/statement-mapper/internal/ingest"
	"github.com/Veraticus/statement-mapper/internal/mapping"
	"github.com/Veraticus/statement-mapper/internal/model"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Propose a field mapping for a statement",
		Long: `Read a statement and show the proposed field mapping, suggestions for
columns that were not mapped, the detected date format and payment frequency,
and the provider. Nothing is learned.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	addContextFlag(cmd)
	cmd.Flags().String("provider", "", "provider name (skips provider detection)")
	cmd.Flags().Bool("no-template", false, "ignore learned templates")
	cmd.Flags().Bool("json", false, "print the analysis as JSON")

	return cmd
}

// analysisReport is the JSON form of an analysis.
type analysisReport struct {
	Provider       model.ProviderMatch    `json:"provider"`
	Mapping        *mapping.Result        `json:"mapping"`
	Patterns       *model.PatternAnalysis `json:"patterns"`
	Validation     *mapping.Validation    `json:"validation"`
	File           string                 `json:"file"`
	Context        model.Context          `json:"context"`
	TemplateID     string                 `json:"template_id,omitempty"`
	TemplateSource string                 `json:"template_source,omitempty"`
	DateColumn     string                 `json:"date_column,omitempty"`
	Rows           int                    `json:"rows"`
	TemplateScore  float64                `json:"template_score,omitempty"`
}

func newAnalysisReport(a *ingest.Analysis) analysisReport {
	report := analysisReport{
		File:           a.Upload.FileName,
		Context:        a.Upload.Context,
		Rows:           len(a.Upload.Rows),
		Provider:       a.Provider,
		TemplateSource: a.TemplateSource,
		TemplateScore:  a.TemplateScore,
		Mapping:        a.Mapping,
		DateColumn:     a.DateColumn,
		Patterns:       a.Patterns,
		Validation:     a.Validation,
	}
	if a.Template != nil {
		report.TemplateID = a.Template.ID
	}
	return report
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	statementContext, err := contextFlag(cmd)
	if err != nil {
		return err
	}
	provider, _ := cmd.Flags().GetString("provider")
	noTemplate, _ := cmd.Flags().GetBool("no-template")
	asJSON, _ := cmd.Flags().GetBool("json")

	progressOut := cmd.ErrOrStderr()
	if asJSON {
		progressOut = nil
	}
	extraction, err := extractFile(ctx, settings, path, progressOut)
	if err != nil {
		return err
	}

	store := openTemplateStore(ctx, settings)
	defer func() { _ = store.Close() }()

	svc, err := buildService(settings, store)
	if err != nil {
		return err
	}

	analysis, err := svc.Analyze(ctx, ingest.Upload{
		UserID:     settings.User,
		Context:    statementContext,
		FileName:   filepath.Base(path),
		Provider:   provider,
		Headers:    extraction.Headers,
		Rows:       extraction.Rows,
		NoTemplate: noTemplate,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(newAnalysisReport(analysis)); err != nil {
			return fmt.Errorf("failed to encode analysis: %w", err)
		}
		return nil
	}

	fmt.Fprintln(out, cli.RenderBox(cli.StatementIcon+" Analysis", cli.RenderAnalysis(analysis)))
	return nil
}
