package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/route-network-api/internal/app"
	"github.com/noah-isme/route-network-api/internal/dto"
)

var horizonFlag string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and commit flights from route templates",
	Long: `Runs one generation synchronously: occurrences of every active route template from the
horizon on are assigned aircraft and crew, then committed in a single transaction. Uncommitted
flights from an earlier run are replaced.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		horizon, err := parseHorizon(horizonFlag, time.Now())
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(a *app.App) error {
			report, runErr := a.Generation.Run(ctx, horizon)
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			return runErr
		})
	},
}

func init() {
	generateCmd.Flags().StringVar(&horizonFlag, "horizon", "", "horizon start, RFC3339 or YYYY-MM-DD (default now)")
	rootCmd.AddCommand(generateCmd)
}

// parseHorizon accepts an RFC3339 instant or a UTC calendar date.
func parseHorizon(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --horizon %q: want RFC3339 or YYYY-MM-DD", raw)
}

func printReport(w io.Writer, r *dto.GenerationReport) {
	fmt.Fprintf(w, "run %s: %s\n", r.RunID, r.Status)
	fmt.Fprintf(w, "  horizon      %s\n", r.HorizonStart.Format(time.RFC3339))
	fmt.Fprintf(w, "  templates    %d\n", r.Templates)
	fmt.Fprintf(w, "  occurrences  %d\n", r.Occurrences)
	fmt.Fprintf(w, "  attempts     %d (%d successful)\n", r.Attempts, r.SuccessfulAttempts)
	if r.ChosenAttempt != nil {
		fmt.Fprintf(w, "  chosen       #%d, %d crew changes\n", *r.ChosenAttempt, r.CrewChanges)
	}
	if r.Status == dto.GenerationSucceeded {
		fmt.Fprintf(w, "  replaced     %d flights\n", r.FlightsDeleted)
		fmt.Fprintf(w, "  committed    %d flights\n", r.FlightsCommitted)
	}
	if r.Failure != "" {
		fmt.Fprintf(w, "  failed at    %s: %s\n", r.FailedStage, r.Failure)
	}
}
