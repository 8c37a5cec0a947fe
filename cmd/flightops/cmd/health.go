package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/route-network-api/internal/app"
	"github.com/noah-isme/route-network-api/internal/dto"
)

var (
	formatFlag string
	outFlag    string
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Print or export the flight board",
	Long: `Labels every flight in the display window with its operational compatibility.
Without --out the board is printed as a table; with --out it is rendered as CSV or PDF.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			if outFlag != "" {
				doc, err := a.Health.Export(cmd.Context(), formatFlag)
				if err != nil {
					return err
				}
				if err := os.WriteFile(outFlag, doc.Body, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outFlag, err)
				}
				cmd.Printf("wrote %s (%d bytes)\n", outFlag, len(doc.Body))
				return nil
			}
			board, err := a.Health.Board(cmd.Context())
			if err != nil {
				return err
			}
			return printBoard(cmd.OutOrStdout(), board)
		})
	},
}

func init() {
	healthCmd.Flags().StringVar(&formatFlag, "format", "csv", "export format: csv or pdf")
	healthCmd.Flags().StringVarP(&outFlag, "out", "o", "", "write the export to this file")
	rootCmd.AddCommand(healthCmd)
}

func printBoard(w io.Writer, board *dto.FlightBoard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FLIGHT\tROUTE\tAIRCRAFT\tDEPARTURE\tLABEL")
	for _, f := range board.Flights {
		marker := ""
		if !f.Healthy {
			marker = " !"
		}
		fmt.Fprintf(tw, "%s\t%s-%s\t%s\t%s\t%s%s\n",
			f.FlightCode, f.SourceID, f.DestinationID, f.AircraftID,
			f.PlannedDeparture.UTC().Format("2006-01-02 15:04"), f.Label, marker)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	labels := make([]string, 0, len(board.Summary))
	for label := range board.Summary {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	fmt.Fprintf(w, "\n%d flights between %s and %s\n", len(board.Flights),
		board.From.UTC().Format(time.DateOnly), board.To.UTC().Format(time.DateOnly))
	for _, label := range labels {
		fmt.Fprintf(w, "  %-36s %d\n", label, board.Summary[label])
	}
	return nil
}
