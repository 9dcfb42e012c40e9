package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/astadocs/constants"
	"github.com/joseph-ayodele/astadocs/internal/repository"
)

var (
	draftKind  string
	draftTimes int
)

// dbhealthCmd pings the configured store and reports how many records it
// holds.
var dbhealthCmd = &cobra.Command{
	Use:   "dbhealth",
	Short: "Check the database connection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		store, err := repository.Open(ctx, a.cfg.Database, a.logger)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.HealthCheck(ctx, 2*time.Second); err != nil {
			return fmt.Errorf("DB health: FAIL (%w)", err)
		}
		recs, err := store.ListRecords(ctx, 5)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, "DB health: OK")
		for _, r := range recs {
			_, _ = fmt.Fprintf(out, "- %s %s + %s (%s)\n", r.ID, r.ListingFile, r.ProposalFile, r.CreatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

// draftCmd asks the drafting capability for the same document several
// times and prints each outcome, which shows how stable its answers are.
var draftCmd = &cobra.Command{
	Use:   "draft FILE",
	Short: "Run the model draft of one document and print the outcomes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if !a.proc.CanDraft() {
			return fmt.Errorf("drafting is not configured (set LLM_ENABLED and OPENAI_API_KEY)")
		}
		ctx := cmd.Context()

		kind, ok := constants.ParseDocKind(draftKind)
		if !ok {
			kind = guessKind(args[0])
		}
		in, err := a.source.FromFile(args[0])
		if err != nil {
			return err
		}
		doc, text, err := a.proc.Text.Run(ctx, kind, in)
		if err != nil {
			return err
		}
		for i := 0; i < max(draftTimes, 1); i++ {
			out := a.proc.Draft.Run(ctx, doc, text, in)
			a.logger.Info("cli.draft.run", "run", i+1, "status", out.Status.String(), "elapsed_ms", out.Elapsed.Milliseconds())
			if err := a.emit(cmd.OutOrStdout(), in.FileName, "draft", map[string]any{
				"run":     i + 1,
				"outcome": out,
				"draft":   out.Draft,
			}); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	draftCmd.Flags().StringVarP(&draftKind, "kind", "k", "", "annuncio|proposta (default: guessed from the file name)")
	draftCmd.Flags().IntVarP(&draftTimes, "times", "n", 1, "number of drafts to request")
	rootCmd.AddCommand(dbhealthCmd, draftCmd)
}

func guessKind(path string) constants.DocKind {
	if strings.Contains(strings.ToLower(path), "propost") {
		return constants.DocKindProposal
	}
	return constants.DocKindListing
}
