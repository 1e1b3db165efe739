// Package ocr extracts medicine names from prescription photos through the
// Gemini API. It is a thin pass-through: image bytes in, name strings out.
// Failures here are reported to the caller and never affect product search.
package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const prompt = "Extract only the medicine names from this prescription image. " +
	"Return them as a JSON array of strings. Do not include any other text, " +
	"markdown formatting, or explanations. Just the raw JSON array."

var medicineListSchema = &genai.Schema{
	Type:  genai.TypeArray,
	Items: &genai.Schema{Type: genai.TypeString},
}

// Extractor reads medicine names off prescription images.
type Extractor struct {
	client *genai.Client
	model  string
}

// New creates an Extractor. baseURL overrides the API endpoint (tests).
func New(ctx context.Context, apiKey, model, baseURL string) (*Extractor, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(baseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(baseURL)
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Extractor{client: client, model: model}, nil
}

// ExtractMedicineNames sends the prescription image to the model and parses
// the returned JSON array.
func (e *Extractor) ExtractMedicineNames(ctx context.Context, image []byte, mimeType string) ([]string, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			genai.NewPartFromText(prompt),
		},
	}}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, &genai.GenerateContentConfig{
		CandidateCount:   1,
		ResponseMIMEType: "application/json",
		ResponseSchema:   medicineListSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	names, err := parseMedicineList(resp.Text())
	if err != nil {
		return nil, err
	}
	return names, nil
}

// parseMedicineList decodes the model output, tolerating markdown fences
// some models wrap JSON in despite instructions.
func parseMedicineList(text string) ([]string, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var names []string
	if err := json.Unmarshal([]byte(cleaned), &names); err != nil {
		return nil, fmt.Errorf("parse medicine list: %w", err)
	}
	return names, nil
}
