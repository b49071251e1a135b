package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/parisxmas/vacancyform/internal/form"
	"github.com/parisxmas/vacancyform/internal/render"
	"github.com/parisxmas/vacancyform/internal/service"
)

var (
	renderIn  string
	renderOut string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a submission to a .docx without storing it",
	Long: `Validates a JSON object of field values, as accepted by POST /api/v1/submissions,
and writes the rendered document to a directory. The submission log is not touched
and nothing is delivered.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderIn, "in", "i", "", "JSON file with field values (required)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", ".", "Output directory")
	renderCmd.MarkFlagRequired("in")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, release, err := loadConfig()
	if err != nil {
		return err
	}
	defer release()

	def, err := form.Load(cfg.Form.Path)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(renderIn)
	if err != nil {
		return fmt.Errorf("read %s: %w", renderIn, err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parse %s: %w", renderIn, err)
	}

	path, err := renderValues(def, service.ValuesFromJSON(data), renderOut)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// renderValues validates values and writes the document into dir,
// returning its path.
func renderValues(def *form.Definition, values service.Values, dir string) (string, error) {
	if err := service.Validate(def, values); err != nil {
		return "", err
	}
	rec := service.NewRecordBuilder(def).Build(values)
	doc, err := render.NewRenderer(def).Render(rec)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, doc.FileName)
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
