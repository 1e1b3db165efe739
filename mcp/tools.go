package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/arvindk/medcompare/config"
	"github.com/arvindk/medcompare/internal/aggregator"
	"github.com/arvindk/medcompare/internal/ocr"
	"github.com/arvindk/medcompare/internal/source"
)

func registerTools(s *server.MCPServer, agg *aggregator.Aggregator, cfg *config.Config) {
	// search_medicines
	searchTool := mcp.NewTool("search_medicines",
		mcp.WithDescription("Search a medicine across Indian online pharmacies (1mg, Apollo 24/7, PharmEasy, TrueMeds, NetMeds) and compare prices"),
		mcp.WithString("medicine",
			mcp.Required(),
			mcp.Description("Medicine name to search for"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Max results per pharmacy, 1-10 (default: 3)"),
		),
		mcp.WithString("source",
			mcp.Description("Query a single pharmacy instead of all five: 1mg, apollo, pharmeasy, truemeds or netmeds"),
		),
	)
	s.AddTool(searchTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSearchMedicines(ctx, request, agg)
	})

	// check_serviceability
	serviceTool := mcp.NewTool("check_serviceability",
		mcp.WithDescription("Check which pharmacies deliver to a location. Pincode covers PharmEasy, TrueMeds and NetMeds; latitude+longitude additionally cover 1mg and Apollo"),
		mcp.WithString("pincode",
			mcp.Description("Indian postal code, e.g. 110027"),
		),
		mcp.WithNumber("latitude",
			mcp.Description("Latitude for the coordinate-based sources"),
		),
		mcp.WithNumber("longitude",
			mcp.Description("Longitude for the coordinate-based sources"),
		),
	)
	s.AddTool(serviceTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCheckServiceability(ctx, request, agg)
	})

	// extract_prescription
	prescriptionTool := mcp.NewTool("extract_prescription",
		mcp.WithDescription("Extract medicine names from a prescription photo"),
		mcp.WithString("image",
			mcp.Required(),
			mcp.Description("Base64-encoded prescription image"),
		),
		mcp.WithString("mime_type",
			mcp.Description("Image MIME type (default: image/jpeg)"),
		),
	)
	s.AddTool(prescriptionTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleExtractPrescription(ctx, request, cfg)
	})
}

func handleSearchMedicines(ctx context.Context, request mcp.CallToolRequest, agg *aggregator.Aggregator) (*mcp.CallToolResult, error) {
	medicine := request.GetString("medicine", "")
	if medicine == "" {
		return mcp.NewToolResultError("medicine is required"), nil
	}
	maxResults := request.GetInt("max_results", 3)

	if name := request.GetString("source", ""); name != "" {
		adapter, err := source.Get(name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("source error: %v (available: %s)", err, strings.Join(source.List(), ", "))), nil
		}
		products, err := adapter.Search(ctx, medicine)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
		}
		if len(products) > maxResults {
			products = products[:maxResults]
		}
		data, _ := json.MarshalIndent(products, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}

	result, err := agg.Search(ctx, medicine, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func handleCheckServiceability(ctx context.Context, request mcp.CallToolRequest, agg *aggregator.Aggregator) (*mcp.CallToolResult, error) {
	pincode := request.GetString("pincode", "")

	var lat, lon *float64
	args := request.GetArguments()
	if _, ok := args["latitude"]; ok {
		if _, ok := args["longitude"]; ok {
			latV := request.GetFloat("latitude", 0)
			lonV := request.GetFloat("longitude", 0)
			lat, lon = &latV, &lonV
		}
	}

	result, err := agg.CheckPincode(ctx, pincode, lat, lon)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("serviceability error: %v", err)), nil
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func handleExtractPrescription(ctx context.Context, request mcp.CallToolRequest, cfg *config.Config) (*mcp.CallToolResult, error) {
	encoded := request.GetString("image", "")
	if encoded == "" {
		return mcp.NewToolResultError("image is required"), nil
	}
	mimeType := request.GetString("mime_type", "image/jpeg")

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid base64 image: %v", err)), nil
	}

	extractor, err := ocr.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ocr error: %v", err)), nil
	}

	names, err := extractor.ExtractMedicineNames(ctx, image, mimeType)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extraction error: %v", err)), nil
	}

	data, _ := json.MarshalIndent(names, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}
