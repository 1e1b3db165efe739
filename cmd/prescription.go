package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arvindk/medcompare/internal/ocr"
	"github.com/arvindk/medcompare/internal/source"
	"github.com/arvindk/medcompare/internal/ui"
)

var prescriptionCmd = &cobra.Command{
	Use:   "prescription [image]",
	Short: "Extract medicine names from a prescription photo",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrescription,
}

func init() {
	prescriptionCmd.Flags().Bool("search", false, "Also search each extracted medicine across pharmacies")
	prescriptionCmd.Flags().Int("max", 3, "Max results per pharmacy when --search is set")
	rootCmd.AddCommand(prescriptionCmd)
}

func runPrescription(cmd *cobra.Command, args []string) error {
	path := args[0]
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	extractor, err := ocr.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, "")
	if err != nil {
		return err
	}

	spin := ui.NewSpinner()
	spin.Start("Reading prescription...")
	names, err := extractor.ExtractMedicineNames(context.Background(), image, imageMIME(path, image))
	spin.Stop()
	if err != nil {
		return fmt.Errorf("prescription extraction failed: %w", err)
	}

	doSearch, _ := cmd.Flags().GetBool("search")
	if !doSearch {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(names)
		return nil
	}

	max, _ := cmd.Flags().GetInt("max")
	agg := buildAggregator()
	out := make(map[string]any, len(names))
	for _, name := range names {
		spin := ui.NewSpinner()
		spin.Start(fmt.Sprintf("Searching '%s'...", name))
		ctx := source.WithProgress(context.Background(), spin.Update)
		result, err := agg.Search(ctx, name, max)
		spin.Stop()
		if err != nil {
			out[name] = map[string]string{"error": err.Error()}
			continue
		}
		out[name] = result
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
	return nil
}

// imageMIME resolves the image content type from the file extension,
// sniffing the bytes when the extension is unknown.
func imageMIME(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	}
	return http.DetectContentType(data)
}
