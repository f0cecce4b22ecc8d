package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/vantage/internal/config"
	"github.com/Nixie-Tech-LLC/vantage/internal/db"
	"github.com/Nixie-Tech-LLC/vantage/internal/pairing"
	"github.com/Nixie-Tech-LLC/vantage/internal/playback"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "vantagectl",
		Short:        "Operator tooling for the vantage signage backend",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(), newEvaluateCmd(), newPairingCodeCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := db.Init(cfg.DatabaseURL); err != nil {
				return err
			}
			defer db.DB.Close()
			return db.RunMigrations(db.DB)
		},
	}
}

// evaluate resolves a scenario file offline, with the same tiers the server uses.
func newEvaluateCmd() *cobra.Command {
	var (
		file       string
		at         string
		staleAfter time.Duration
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Resolve what a screen would play for a JSON scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				now = parsed
			}

			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("opening scenario: %w", err)
				}
				defer f.Close()
				in = f
			}

			d, err := evaluate(in, now, staleAfter)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "scenario JSON file, - for stdin")
	cmd.Flags().StringVar(&at, "at", "", "evaluation time (RFC3339), defaults to now")
	cmd.Flags().DurationVar(&staleAfter, "stale-after", 2*time.Minute, "ignore snapshots older than this, 0 to disable")
	return cmd
}

func evaluate(r io.Reader, now time.Time, staleAfter time.Duration) (playback.Decision, error) {
	var in playback.Inputs
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return playback.Decision{}, fmt.Errorf("decoding scenario: %w", err)
	}
	return playback.Resolve(in, now, staleAfter), nil
}

func newPairingCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pairing-code",
		Short: "Print a fresh pairing code",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := pairing.GenerateCode()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}
}
