package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/astadocs/constants"
	"github.com/joseph-ayodele/astadocs/internal/entity"
)

var textCmd = &cobra.Command{
	Use:   "text FILE",
	Short: "Print the text recovered from a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		in, err := a.source.FromFile(args[0])
		if err != nil {
			return err
		}
		res, err := a.proc.Text.Extractor.Extract(cmd.Context(), in.Data, in.FileName)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		return err
	},
}

var listingCmd = &cobra.Command{
	Use:     "listing FILE",
	Aliases: []string{"annuncio"},
	Short:   "Extract the record of an auction listing",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSingle(cmd.Context(), cmd, constants.DocKindListing, args[0])
	},
}

var proposalCmd = &cobra.Command{
	Use:     "proposal FILE",
	Aliases: []string{"proposta"},
	Short:   "Extract the record of a purchase proposal",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSingle(cmd.Context(), cmd, constants.DocKindProposal, args[0])
	},
}

var processCmd = &cobra.Command{
	Use:   "process LISTING PROPOSAL",
	Short: "Extract both documents of a pair and print the merged record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		l, err := a.source.FromFile(args[0])
		if err != nil {
			return err
		}
		p, err := a.source.FromFile(args[1])
		if err != nil {
			return err
		}
		out, err := a.proc.ProcessPair(cmd.Context(), l, p, a.mode())
		if err != nil {
			return err
		}
		return a.emit(cmd.OutOrStdout(), stem(l.FileName)+"__"+stem(p.FileName), "merged", out.Merged)
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge LISTING.json PROPOSAL.json",
	Short: "Merge two records extracted earlier",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		var l entity.Listing
		if err := readJSON(args[0], &l); err != nil {
			return err
		}
		var p entity.Proposal
		if err := readJSON(args[1], &p); err != nil {
			return err
		}
		merged := a.proc.Merger.Merge(l, p)
		return a.emit(cmd.OutOrStdout(), stem(filepath.Base(args[0]))+"__"+stem(filepath.Base(args[1])), "merged", merged)
	},
}

func init() {
	rootCmd.AddCommand(textCmd, listingCmd, proposalCmd, processCmd, mergeCmd)
}

func runSingle(ctx context.Context, cmd *cobra.Command, kind constants.DocKind, path string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	in, err := a.source.FromFile(path)
	if err != nil {
		return err
	}
	var rec any
	if kind == constants.DocKindListing {
		out, err := a.proc.ProcessListing(ctx, in, a.mode())
		if err != nil {
			return err
		}
		rec = out.Listing
	} else {
		out, err := a.proc.ProcessProposal(ctx, in, a.mode())
		if err != nil {
			return err
		}
		rec = out.Proposal
	}
	return a.emit(cmd.OutOrStdout(), in.FileName, string(kind), rec)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
