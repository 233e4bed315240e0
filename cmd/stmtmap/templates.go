package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/statement-mapper/internal/cli"
	"github.com/Veraticus/statement-mapper/internal/common"
	"github.com/Veraticus/statement-mapper/internal/model"
	"github.com/Veraticus/statement-mapper/internal/storage"
)

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect learned provider templates",
		Long:  `List, show and delete the templates learned from confirmed mappings.`,
	}

	// Subcommands
	cmd.AddCommand(templatesListCmd())
	cmd.AddCommand(templatesShowCmd())
	cmd.AddCommand(templatesDeleteCmd())

	return cmd
}

func templatesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List learned templates",
		Long:  `List templates for a context, best performing first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			statementContext, err := contextFlag(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			templates, err := buildTrainer(settings, store).GetTemplatesByContext(ctx, settings.User, statementContext)
			if err != nil {
				return err
			}

			title := fmt.Sprintf("%s templates (%s)", statementContext, settings.User)
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(title, cli.RenderTemplates(templates)))
			return nil
		},
	}
	addContextFlag(cmd)
	return cmd
}

func templatesShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show PROVIDER",
		Short: "Show one template",
		Long:  `Show a provider's learned field mappings with their confidence and history.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			statementContext, err := contextFlag(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tmpl, err := buildTrainer(settings, store).GetTemplate(ctx, settings.User, args[0], statementContext)
			if err != nil {
				return templateLookupError(args[0], statementContext, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Template", cli.RenderTemplate(tmpl)))
			return nil
		},
	}
	addContextFlag(cmd)
	return cmd
}

func templatesDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete PROVIDER",
		Short: "Forget a template",
		Long:  `Delete a provider's template. The next statement from them starts from scratch.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			statementContext, err := contextFlag(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tmpl, err := store.GetTemplate(ctx, settings.User, args[0], statementContext)
			if err != nil {
				return templateLookupError(args[0], statementContext, err)
			}
			if err := store.DeleteTemplate(ctx, tmpl.ID); err != nil {
				return fmt.Errorf("failed to delete template: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %s template", tmpl.Provider)))
			return nil
		},
	}
	addContextFlag(cmd)
	return cmd
}

func templateLookupError(provider string, statementContext model.Context, err error) error {
	if errors.Is(err, storage.ErrTemplateNotFound) {
		return common.NewUserError(
			fmt.Sprintf("No %s template for %s", statementContext, strings.TrimSpace(provider)),
			err)
	}
	return err
}
