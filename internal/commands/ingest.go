package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bankfeed-dev/bankfeed/internal/config"
	"github.com/bankfeed-dev/bankfeed/internal/dedup"
	"github.com/bankfeed-dev/bankfeed/internal/engine"
	"github.com/bankfeed-dev/bankfeed/internal/model"
)

func newIngestCommand(verbose *bool) *cobra.Command {
	var profilePath string
	var knownPath string
	var maxRows int
	var saveKnown bool

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Parse bank-export files and flag duplicate records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var profile *config.Profile
			if profilePath != "" {
				p, err := config.Load(profilePath)
				if err != nil {
					return err
				}
				profile = p
			}
			if knownPath == "" && profile != nil {
				knownPath = profile.KnownRecords
			}
			return runIngest(cmd, args, profile, knownPath, maxRows, saveKnown, *verbose)
		},
	}

	cmd.Flags().StringVar(&profilePath, "profile", "", "institution profile YAML")
	cmd.Flags().StringVar(&knownPath, "known", "", "known-records CSV for duplicate matching")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "stop after N rows per file (0 = all)")
	cmd.Flags().BoolVar(&saveKnown, "save-known", false, "append accepted records to the known-records CSV")

	return cmd
}

func runIngest(cmd *cobra.Command, files []string, profile *config.Profile, knownPath string, maxRows int, saveKnown, verbose bool) error {
	known, err := dedup.Load(knownPath)
	if err != nil {
		return err
	}

	eng := engine.New()
	matcher := dedup.NewMatcher()
	session := dedup.NewSession()
	logger := newLogger(verbose)

	opts := engine.Options{MaxRows: maxRows, Logger: logger}
	if profile != nil {
		opts.Expected = profile.Schema()
		opts.Mapping = profile.Mapping()
		opts.Delimiter = profile.DelimiterRune()
	}

	failures := 0
	// Files in a batch are processed sequentially; cross-file duplicate
	// state travels in the session, never in a global registry.
	for _, file := range files {
		res := eng.ParseFile(cmd.Context(), file, opts)
		printResult(cmd, file, res)
		if !res.Success {
			failures++
			continue
		}

		if profile == nil {
			continue
		}
		cands := toTransactions(res.Data, profile)
		matches := matcher.MatchBatch(cands, known, session, file)
		dupes := 0
		for i, m := range matches {
			if m == nil {
				continue
			}
			dupes++
			cmd.Printf("  duplicate: row %d matches %s record %d\n", i+1, m.Source, m.Index+1)
		}
		cmd.Printf("  %d duplicate(s) across %d candidate(s)\n", dupes, len(cands))
	}

	if saveKnown && knownPath != "" {
		// Others("") spans every file in the session.
		if err := dedup.Append(knownPath, session.Others("")); err != nil {
			return fmt.Errorf("saving known records: %w", err)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failures, len(files))
	}
	return nil
}

func printResult(cmd *cobra.Command, file string, res *engine.Result) {
	cmd.Printf("%s:\n", filepath.Base(file))
	if !res.Success {
		for _, e := range res.Errors {
			cmd.Printf("  error: %s\n", e.Error())
		}
		return
	}
	cmd.Printf("  %d rows: %d valid, %d rejected (%d ms)\n",
		res.Stats.TotalRows, res.Stats.ValidRows, res.Stats.RejectedRows, res.Stats.ProcessingTimeMs)
	if res.RejectFilePath != "" {
		cmd.Printf("  rejects: %s\n", res.RejectFilePath)
	}
}

// toTransactions maps validated rows to duplicate-matcher candidates using
// the profile's column mapping. Rows missing a date or amount are skipped;
// the matcher only sees well-formed candidates.
func toTransactions(rows []model.ParsedRow, p *config.Profile) []model.Transaction {
	var out []model.Transaction
	for _, row := range rows {
		date := row[p.Columns.Date]
		amount := row[p.Columns.Amount]
		if date.Kind() != model.KindDate || amount.Kind() != model.KindNumber {
			continue
		}
		out = append(out, model.Transaction{
			Date:        date.AsDate(),
			Amount:      amount.AsNumber(),
			Institution: p.Institution,
			Account:     p.Account,
			Statement:   row[p.Columns.Statement].String(),
			Merchant:    row[p.Columns.Merchant].String(),
		})
	}
	return out
}
