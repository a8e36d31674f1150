package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/Lllllllleong/ocrpipeline/internal/recognize"
)

// --- OCR Model Prompts ---
const OCRSystemPrompt = "You are a high-accuracy document OCR engine. Your task is to extract the full text and structure of a document page. You must output your response as a single valid JSON object."
const OCRUserPrompt = `Extract all text from this document page with high accuracy.

Analyze the page and provide:

1. "text": Complete extracted text, preserving layout and structure
2. "headings": List of all headings/titles identified
3. "tables": List of any tables found with their structure and content
4. "images": List of images/figures with descriptions and captions
5. "structure": Structure analysis (has_headings, has_tables, has_lists, has_images, document_type)

Return the response as a valid JSON object with this structure:
{
  "text": "full extracted text here...",
  "headings": ["Heading 1", "Heading 2"],
  "tables": [
    {
      "id": "TABLE_1",
      "caption": "Table caption",
      "data": [["row1col1", "row1col2"], ["row2col1", "row2col2"]]
    }
  ],
  "images": [
    {
      "id": "IMAGE_1",
      "caption": "Image caption",
      "description": "Image description",
      "type": "chart/diagram/photo",
      "position": "top/middle/bottom"
    }
  ],
  "structure": {
    "has_headings": true,
    "has_tables": true,
    "has_lists": false,
    "has_images": true,
    "document_type": "report/article/form/letter/etc"
  }
}

Be thorough and accurate. Preserve formatting, special characters, and structure.`

// VertexConfig configures the OCR model.
type VertexConfig struct {
	ProjectID       string
	Region          string
	Model           string
	MaxOutputTokens int
	Temperature     float32
}

// VertexClient calls the Gemini OCR model on Vertex AI. It implements
// recognize.Client.
type VertexClient struct {
	config     VertexConfig
	baseClient *genai.Client
}

// NewVertexClient creates a recognition client for the configured model.
func NewVertexClient(ctx context.Context, config VertexConfig) (*VertexClient, error) {
	if config.ProjectID == "" || config.Region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("NewVertexClient: model cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, config.ProjectID, config.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	return &VertexClient{config: config, baseClient: baseClient}, nil
}

// Engine reports the model identifier recorded in result metadata.
func (c *VertexClient) Engine() string { return c.config.Model }

// Recognize sends a rendered page to the model and returns the raw response
// text. Transport failures are wrapped in recognize.ErrUnavailable.
func (c *VertexClient) Recognize(ctx context.Context, req recognize.Request) (string, error) {
	model := c.baseClient.GenerativeModel(c.config.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(OCRSystemPrompt)},
	}

	temperature := c.config.Temperature
	if req.Temperature != 0 {
		temperature = req.Temperature
	}
	maxTokens := c.config.MaxOutputTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](temperature),
		MaxOutputTokens: genai.Ptr[int32](int32(maxTokens)),
	}

	pagePart := genai.Blob{
		MIMEType: req.MIMEType,
		Data:     req.Data,
	}

	resp, err := model.GenerateContent(ctx, pagePart, genai.Text(OCRUserPrompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", recognize.ErrUnavailable, err)
	}

	raw := extractText(resp)
	if raw == "" {
		return "", fmt.Errorf("%w: model returned an empty response", recognize.ErrUnavailable)
	}
	return raw, nil
}

// extractText robustly gets the raw text content from the model response.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
