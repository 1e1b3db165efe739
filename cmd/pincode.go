package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arvindk/medcompare/internal/source"
	"github.com/arvindk/medcompare/internal/ui"
)

var pincodeCmd = &cobra.Command{
	Use:   "pincode [code]",
	Short: "Check delivery serviceability for a pincode",
	Long:  "Check which pharmacies deliver to a postal code. Pass --lat and --lon to also query the coordinate-based sources (1mg, Apollo).",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPincode,
}

func init() {
	pincodeCmd.Flags().Float64("lat", 0, "Latitude for coordinate-based sources")
	pincodeCmd.Flags().Float64("lon", 0, "Longitude for coordinate-based sources")
	rootCmd.AddCommand(pincodeCmd)
}

func runPincode(cmd *cobra.Command, args []string) error {
	agg := buildAggregator()

	var pincode string
	if len(args) > 0 {
		pincode = args[0]
	}

	var lat, lon *float64
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
		latV, _ := cmd.Flags().GetFloat64("lat")
		lonV, _ := cmd.Flags().GetFloat64("lon")
		lat, lon = &latV, &lonV
	}

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Checking serviceability for %s...", pincode))
	ctx := source.WithProgress(context.Background(), spin.Update)
	result, err := agg.CheckPincode(ctx, pincode, lat, lon)
	spin.Stop()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(result)
	return nil
}
