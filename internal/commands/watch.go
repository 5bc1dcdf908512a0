package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/bankfeed-dev/bankfeed/internal/config"
	"github.com/bankfeed-dev/bankfeed/internal/dedup"
	"github.com/bankfeed-dev/bankfeed/internal/engine"
	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// settleDelay lets the exporting program finish writing before we parse.
const settleDelay = 500 * time.Millisecond

func newWatchCommand(verbose *bool) *cobra.Command {
	var profilePath string

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and ingest bank exports as they appear",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var profile *config.Profile
			if profilePath != "" {
				p, err := config.Load(profilePath)
				if err != nil {
					return err
				}
				profile = p
			}
			return runWatch(cmd, args[0], profile, *verbose)
		},
	}

	cmd.Flags().StringVar(&profilePath, "profile", "", "institution profile YAML")

	return cmd
}

func runWatch(cmd *cobra.Command, dir string, profile *config.Profile, verbose bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	eng := engine.New()
	matcher := dedup.NewMatcher()
	session := dedup.NewSession()
	logger := newLogger(verbose)

	var known []model.Transaction
	if profile != nil {
		known, err = dedup.Load(profile.KnownRecords)
		if err != nil {
			return err
		}
	}

	opts := engine.Options{Logger: logger}
	if profile != nil {
		opts.Expected = profile.Schema()
		opts.Mapping = profile.Mapping()
		opts.Delimiter = profile.DelimiterRune()
	}

	cmd.Printf("watching %s (session %s)\n", dir, session.ID)
	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) || !ingestable(ev.Name) {
				continue
			}
			time.Sleep(settleDelay)

			res := eng.ParseFile(ctx, ev.Name, opts)
			printResult(cmd, ev.Name, res)
			if !res.Success || profile == nil {
				continue
			}
			cands := toTransactions(res.Data, profile)
			matches := matcher.MatchBatch(cands, known, session, ev.Name)
			dupes := 0
			for _, m := range matches {
				if m != nil {
					dupes++
				}
			}
			cmd.Printf("  %d duplicate(s) across %d candidate(s)\n", dupes, len(cands))
		}
	}
}

func ingestable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".json", ".txt", ".tsv", ".xlsx":
		return true
	default:
		return false
	}
}
