package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/parisxmas/vacancyform/internal/config"
	"github.com/parisxmas/vacancyform/internal/gelf"
	"github.com/parisxmas/vacancyform/internal/metrics"
)

var (
	configPath string
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "vacancyform",
		Short: "Job vacancy intake form",
		Long: `vacancyform collects job vacancy submissions through a web form,
renders each one as a Word document, keeps a tabular log of all submissions
and optionally forwards the document by email, GitHub or SharePoint.`,
		RunE:          runServe, // Default action is serve
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (default $VACANCY_CONFIG)")
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(renderCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadConfig reads configuration and attaches the GELF writer when one is
// configured. The returned func releases it.
func loadConfig() (*config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	metrics.Register()

	release := func() {}
	if cfg.Log.GELFAddr != "" {
		gelfWriter, err := gelf.New(cfg.Log.GELFAddr, "vacancyform")
		if err != nil {
			log.Printf("Warning: GELF init failed: %v", err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, gelfWriter))
			log.Printf("GELF logging: enabled (%s)", cfg.Log.GELFAddr)
			release = func() {
				log.SetOutput(os.Stderr)
				gelfWriter.Close()
			}
		}
	}
	return cfg, release, nil
}
