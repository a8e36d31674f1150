// Package recognize defines the recognition service capability and turns its
// raw responses into normalized page content.
package recognize

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Lllllllleong/ocrpipeline/internal/models"
)

// ErrUnavailable marks transport, quota and timeout failures of the remote
// recognition call. Callers can match it with errors.Is.
var ErrUnavailable = errors.New("recognition service unavailable")

// Request carries one rendered page to the recognition service.
type Request struct {
	Data        []byte
	MIMEType    string
	MaxTokens   int
	Temperature float32
}

// Client is the remote recognition capability. Recognize returns the raw
// model response text; it does not interpret it.
type Client interface {
	Recognize(ctx context.Context, req Request) (string, error)
	Engine() string
}

// resultSchema describes the structured response the recognition prompt asks
// for. Responses that unmarshal but do not conform are treated the same as
// unparseable ones.
const resultSchema = `{
  "type": "object",
  "required": ["text"],
  "properties": {
    "text": {"type": "string"},
    "headings": {"type": "array", "items": {"type": "string"}},
    "tables": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "caption": {"type": "string"},
          "data": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}}
        }
      }
    },
    "images": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "caption": {"type": "string"},
          "description": {"type": "string"},
          "type": {"type": "string"},
          "position": {"type": "string"}
        }
      }
    },
    "structure": {
      "type": "object",
      "properties": {
        "has_headings": {"type": "boolean"},
        "has_tables": {"type": "boolean"},
        "has_lists": {"type": "boolean"},
        "has_images": {"type": "boolean"},
        "document_type": {"type": "string"}
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("ocr_result.schema.json", resultSchema)

type parsedResult struct {
	Text      string            `json:"text"`
	Headings  []string          `json:"headings"`
	Tables    []models.Table    `json:"tables"`
	Images    []models.ImageRef `json:"images"`
	Structure models.Structure  `json:"structure"`
}

// Normalize converts a raw recognition response into page content. Malformed
// output is not an error: anything that fails to parse or validate degrades
// to a result whose text is the raw response with an empty structure. The
// boolean reports whether the response parsed as structured output.
func Normalize(raw string) (models.PageContent, bool) {
	cleaned := stripFences(raw)

	var generic interface{}
	if err := json.Unmarshal([]byte(cleaned), &generic); err != nil {
		return degraded(raw), false
	}
	if err := compiledSchema.Validate(generic); err != nil {
		return degraded(raw), false
	}

	var parsed parsedResult
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return degraded(raw), false
	}

	structure := parsed.Structure
	structure.HasHeadings = len(parsed.Headings) > 0
	structure.HasTables = len(parsed.Tables) > 0
	structure.HasImages = len(parsed.Images) > 0
	if structure.DocumentType == "" {
		structure.DocumentType = "unknown"
	}

	// Absent lists marshal as [] in the artifact, never null.
	if parsed.Headings == nil {
		parsed.Headings = []string{}
	}
	if parsed.Tables == nil {
		parsed.Tables = []models.Table{}
	}
	if parsed.Images == nil {
		parsed.Images = []models.ImageRef{}
	}

	return models.PageContent{
		Text:      parsed.Text,
		Headings:  parsed.Headings,
		Tables:    parsed.Tables,
		Images:    parsed.Images,
		Structure: structure,
		Raw:       raw,
	}, true
}

func degraded(raw string) models.PageContent {
	return models.PageContent{
		Text:      raw,
		Headings:  []string{},
		Tables:    []models.Table{},
		Images:    []models.ImageRef{},
		Structure: models.Structure{DocumentType: "unknown"},
		Raw:       raw,
	}
}

// stripFences removes markdown code fences the model sometimes wraps its
// JSON in.
func stripFences(s string) string {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
