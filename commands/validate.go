// Package commands holds the CLI subcommands registered on the PocketBase root command.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"bulkorder/services"
)

// ErrRejected is returned when the validated file would not produce a batch.
var ErrRejected = errors.New("upload rejected")

// NewValidateCommand returns the "validate" subcommand. It runs a workbook
// through the same pipeline as the web upload without submitting anything.
func NewValidateCommand(defaults services.Options) *cobra.Command {
	var (
		dateOrder string
		policy    string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a bulk order workbook without submitting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := defaults
			if dateOrder != "" {
				switch services.DateOrder(dateOrder) {
				case services.DateOrderAuto, services.DateOrderMDY, services.DateOrderDMY:
					opts.DateOrder = services.DateOrder(dateOrder)
				default:
					return fmt.Errorf("invalid --date-order %q (want auto, mdy or dmy)", dateOrder)
				}
			}
			if policy != "" {
				switch services.BatchPolicy(policy) {
				case services.PolicyStrict, services.PolicyQuarantine:
					opts.Policy = services.BatchPolicy(policy)
				default:
					return fmt.Errorf("invalid --policy %q (want strict or quarantine)", policy)
				}
			}

			snap, err := validateFile(args[0], opts)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(snap); err != nil {
					return fmt.Errorf("encode result: %w", err)
				}
			} else {
				printSummary(cmd.OutOrStdout(), snap)
			}

			if snap.State == services.StateRejected {
				cmd.SilenceUsage = true
				return ErrRejected
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateOrder, "date-order", "", "how to read ambiguous NN/NN/YYYY dates: auto, mdy or dmy")
	cmd.Flags().StringVar(&policy, "policy", "", "batch policy: strict or quarantine")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func validateFile(path string, opts services.Options) (services.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return services.Snapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	in := services.NewIngestion(opts)
	// Read failures still leave a Rejected snapshot to report.
	_ = in.Load(f, filepath.Base(path))
	return in.Snapshot(), nil
}

func printSummary(w io.Writer, snap services.Snapshot) {
	fmt.Fprintf(w, "File:   %s\n", snap.FileName)
	if snap.SheetName != "" {
		fmt.Fprintf(w, "Sheet:  %s\n", snap.SheetName)
	}
	fmt.Fprintf(w, "Rows:   %d read, %d valid\n", snap.TotalRows, snap.ValidRows)
	for _, warn := range snap.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warn)
	}

	switch snap.State {
	case services.StateRejected:
		fmt.Fprintln(w, "Result: rejected")
		fmt.Fprintln(w, snap.ErrorReport())
	case services.StateReadyForReview:
		fmt.Fprintf(w, "Result: %d order(s) ready, total premium %s\n",
			len(snap.Batch), services.FormatAmount(services.TotalPremium(snap.Batch)))
		if len(snap.Errors) > 0 {
			fmt.Fprintf(w, "Excluded rows:\n%s\n", snap.ErrorReport())
		}
	}
}
