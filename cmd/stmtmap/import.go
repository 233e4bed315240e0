package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/statement-mapper/internal/catalog"
	"github.com/Veraticus/statement-mapper/internal/cli"
	"github.com/Veraticus/statement-mapper/internal/ingest"
	"github.com/Veraticus/statement-mapper/internal/model"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Map, review and learn a statement",
		Long: `Read a statement, propose a field mapping and let you confirm or correct
it. The confirmed mapping is remembered as a template for the provider so the
next statement from them maps itself.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	addContextFlag(cmd)
	cmd.Flags().String("provider", "", "provider name (skips provider detection)")
	cmd.Flags().BoolP("yes", "y", false, "accept the proposed mapping without review")
	cmd.Flags().Bool("no-template", false, "ignore learned templates when proposing the mapping")

	return cmd
}

// importOptions are the per-run inputs of an import.
type importOptions struct {
	reviewer   ingest.Reviewer
	path       string
	provider   string
	noTemplate bool
}

func runImport(cmd *cobra.Command, args []string) error {
	statementContext, err := contextFlag(cmd)
	if err != nil {
		return err
	}
	provider, _ := cmd.Flags().GetString("provider")
	yes, _ := cmd.Flags().GetBool("yes")
	noTemplate, _ := cmd.Flags().GetBool("no-template")

	out := cmd.OutOrStdout()
	opts := importOptions{
		path:       args[0],
		provider:   provider,
		noTemplate: noTemplate,
		reviewer:   ingest.AutoReviewer{},
	}
	if !yes {
		opts.reviewer = cli.NewReviewer(catalog.Default(), cmd.InOrStdin(), out)
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := interrupts.HandleInterrupts(cmd.Context(), true)
	defer stop()

	err = importFile(ctx, statementContext, opts, out, cmd.ErrOrStderr())
	if interrupts.WasInterrupted() {
		return nil
	}
	return err
}

func importFile(ctx context.Context, statementContext model.Context, opts importOptions, out, progressOut io.Writer) error {
	extraction, err := extractFile(ctx, settings, opts.path, progressOut)
	if err != nil {
		return err
	}

	store := openTemplateStore(ctx, settings)
	defer func() { _ = store.Close() }()

	svc, err := buildService(settings, store)
	if err != nil {
		return err
	}

	upload := ingest.Upload{
		UserID:     settings.User,
		Context:    statementContext,
		FileName:   filepath.Base(opts.path),
		Provider:   opts.provider,
		Headers:    extraction.Headers,
		Rows:       extraction.Rows,
		NoTemplate: opts.noTemplate,
	}

	analysis, result, err := svc.Process(ctx, upload, opts.reviewer)
	if errors.Is(err, ingest.ErrReviewDeclined) {
		fmt.Fprintln(out, cli.FormatWarning("Import cancelled. Nothing was learned."))
		return nil
	}
	if err != nil {
		return err
	}

	if _, auto := opts.reviewer.(ingest.AutoReviewer); auto {
		fmt.Fprintln(out, cli.RenderBox(cli.StatementIcon+" Analysis", cli.RenderAnalysis(analysis)))
	}

	fmt.Fprintln(out, cli.RenderBox("Records", cli.RenderSummary(result.Records)))

	switch {
	case result.Learned:
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Learned %s template (used %d times)",
			result.Template.Provider, result.Template.UsageCount)))
	case result.SaveErr != nil:
		slog.Warn("template was not saved", "error", result.SaveErr)
		fmt.Fprintln(out, cli.FormatWarning("The mapping was applied but could not be remembered."))
	default:
		fmt.Fprintln(out, cli.FormatInfo("Provider unknown, so this mapping was not remembered."))
	}
	return nil
}
