package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/evidra/internal/validate"
)

var doctorTimeout time.Duration

// ErrUnhealthy is returned by doctor when a configured provider fails its check
var ErrUnhealthy = errors.New("one or more providers failed")

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity and credentials for every provider",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 10*time.Second, "per-check timeout")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 4*doctorTimeout)
	defer cancel()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	var store validate.DocumentStore
	if a.docs != nil {
		store = a.docs
	}
	checks := []validate.Check{
		validate.SourceControlCheck(a.scm),
		validate.IssueTrackerCheck(a.tracker),
		validate.ModelCheck(a.provider),
		validate.DocumentCheck(store),
	}

	results := validate.NewValidator(doctorTimeout, len(checks)).Validate(ctx, checks)

	out := cmd.OutOrStdout()
	for _, r := range results {
		switch {
		case r.OK:
			fmt.Fprintf(out, "✓ %-10s %s (%v)\n", r.Name, r.Detail, r.Latency.Round(time.Millisecond))
		case r.Skipped:
			fmt.Fprintf(out, "- %-10s skipped: %s\n", r.Name, r.Detail)
		default:
			fmt.Fprintf(out, "✗ %-10s %s\n", r.Name, r.Error)
		}
	}

	if !validate.Healthy(results) {
		return ErrUnhealthy
	}
	return nil
}
