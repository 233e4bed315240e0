package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/statement-mapper/internal/catalog"
	"github.com/Veraticus/statement-mapper/internal/cli"
	"github.com/Veraticus/statement-mapper/internal/common"
	"github.com/Veraticus/statement-mapper/internal/model"
	"github.com/Veraticus/statement-mapper/internal/training"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback PROVIDER",
		Short: "Tell a template whether a column mapping was right",
		Long: `Record that a provider's column was (or was not) the right source for a
field. Correct feedback raises the entry's confidence; incorrect feedback
lowers it so it stops being applied automatically.`,
		Args: cobra.ExactArgs(1),
		RunE: runFeedback,
	}

	addContextFlag(cmd)
	cmd.Flags().String("field", "", "field key, e.g. date or amount")
	cmd.Flags().String("header", "", "column header")
	cmd.Flags().Bool("correct", false, "the mapping was correct")
	cmd.Flags().Bool("incorrect", false, "the mapping was wrong")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("header")
	cmd.MarkFlagsOneRequired("correct", "incorrect")
	cmd.MarkFlagsMutuallyExclusive("correct", "incorrect")

	return cmd
}

func runFeedback(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	statementContext, err := contextFlag(cmd)
	if err != nil {
		return err
	}
	field, _ := cmd.Flags().GetString("field")
	header, _ := cmd.Flags().GetString("header")
	correct, _ := cmd.Flags().GetBool("correct")

	key := model.FieldKey(field)
	if _, ok := catalog.Default().Field(statementContext, key); !ok {
		return common.NewUserError(fmt.Sprintf("%q is not a %s field", field, statementContext), nil)
	}

	store, err := initStorage(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	err = buildTrainer(settings, store).RecordFeedback(ctx, training.FeedbackRequest{
		UserID:     settings.User,
		Provider:   args[0],
		Context:    statementContext,
		Field:      key,
		Header:     header,
		WasCorrect: correct,
	})
	if err != nil {
		if errors.Is(err, training.ErrInvalidRequest) {
			return common.NewUserError("Feedback needs a field and a header", err)
		}
		return templateLookupError(args[0], statementContext, err)
	}

	verdict := "incorrect"
	if correct {
		verdict = "correct"
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
		fmt.Sprintf("Recorded %s → %s as %s", header, field, verdict)))
	return nil
}
