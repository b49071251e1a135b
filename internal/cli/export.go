package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/parisxmas/vacancyform/internal/storage"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the submission log as CSV",
	Long: `Reads every submission from the configured log store and writes it as CSV,
oldest first, with one column per field label. Writes to stdout unless --out is given.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, release, err := loadConfig()
	if err != nil {
		return err
	}
	defer release()

	a, err := build(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	n, err := exportLog(cmd.Context(), a, cmd.OutOrStdout(), exportOut)
	if err != nil {
		return err
	}
	if exportOut != "" && exportOut != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d submissions to %s\n", n, exportOut)
	}
	return nil
}

// exportLog writes the log to out, or to stdout when out is empty or "-".
func exportLog(ctx context.Context, a *app, stdout io.Writer, out string) (int, error) {
	recs, err := a.subSvc.Records(ctx)
	if err != nil {
		return 0, err
	}

	w := stdout
	toFile := out != "" && out != "-"
	if toFile {
		f, err := os.Create(out)
		if err != nil {
			return 0, fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}
	if err := storage.WriteCSV(w, recs); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}
	return len(recs), nil
}
