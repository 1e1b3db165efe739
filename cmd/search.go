package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arvindk/medcompare/internal/aggregator"
	"github.com/arvindk/medcompare/internal/source"
	"github.com/arvindk/medcompare/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:   "search [medicine]",
	Short: "Search a medicine across all pharmacies",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().Int("max", 3, "Max results per pharmacy (1-10)")
	searchCmd.Flags().String("format", "json", "Output format: json, table")
	searchCmd.Flags().String("source", "", "Query a single pharmacy (1mg, apollo, pharmeasy, truemeds, netmeds)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	agg := buildAggregator()

	medicine := args[0]
	max, _ := cmd.Flags().GetInt("max")
	format, _ := cmd.Flags().GetString("format")

	if name, _ := cmd.Flags().GetString("source"); name != "" {
		return searchSingleSource(name, medicine, max, format)
	}

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Searching '%s' across pharmacies...", medicine))
	ctx := source.WithProgress(context.Background(), spin.Update)
	result, err := agg.Search(ctx, medicine, max)
	spin.Stop()
	if err != nil {
		if errors.Is(err, aggregator.ErrBadRequest) {
			return err
		}
		return fmt.Errorf("search failed: %w", err)
	}

	switch format {
	case "table":
		printResultTables(result)
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(result)
	}

	return nil
}

// searchSingleSource queries one registered pharmacy by name.
func searchSingleSource(name, medicine string, max int, format string) error {
	adapter, err := source.Get(name)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(source.List(), ", "))
	}
	if max < aggregator.MinResults || max > aggregator.MaxResults {
		return fmt.Errorf("max must be between %d and %d", aggregator.MinResults, aggregator.MaxResults)
	}

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Searching '%s' on %s...", medicine, name))
	ctx := source.WithProgress(context.Background(), spin.Update)
	products, err := adapter.Search(ctx, medicine)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("%s search failed: %w", name, err)
	}
	if len(products) > max {
		products = products[:max]
	}

	switch format {
	case "table":
		printProductsTable(products)
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(products)
	}
	return nil
}
