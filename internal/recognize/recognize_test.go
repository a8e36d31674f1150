package recognize

import (
	"testing"
)

func TestNormalizeStructuredResponse(t *testing.T) {
	raw := `{
		"text": "Quarterly Report",
		"headings": ["Overview", "Results"],
		"tables": [{"id": "TABLE_1", "caption": "Revenue", "data": [["Q1", "100"], ["Q2", "200"]]}],
		"images": [],
		"structure": {"has_headings": true, "has_tables": true, "has_lists": true, "has_images": false, "document_type": "report"}
	}`

	content, ok := Normalize(raw)
	if !ok {
		t.Fatal("expected structured parse")
	}
	if content.Text != "Quarterly Report" {
		t.Fatalf("text = %q", content.Text)
	}
	if len(content.Headings) != 2 || len(content.Tables) != 1 {
		t.Fatalf("content = %+v", content)
	}
	if !content.Structure.HasHeadings || !content.Structure.HasTables || !content.Structure.HasLists {
		t.Fatalf("structure = %+v", content.Structure)
	}
	if content.Structure.DocumentType != "report" {
		t.Fatalf("document type = %q", content.Structure.DocumentType)
	}
	if content.Raw != raw {
		t.Fatal("raw response must be preserved verbatim")
	}
}

func TestNormalizeStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"text\": \"fenced\"}\n```"
	content, ok := Normalize(raw)
	if !ok {
		t.Fatal("fenced JSON should parse")
	}
	if content.Text != "fenced" {
		t.Fatalf("text = %q", content.Text)
	}
	if content.Raw != raw {
		t.Fatal("raw must keep the fences")
	}
}

func TestNormalizeMalformedDegradesToRaw(t *testing.T) {
	raw := "I could not produce JSON, but the page says: hello world"
	content, ok := Normalize(raw)
	if ok {
		t.Fatal("malformed response must not report a structured parse")
	}
	if content.Text != raw {
		t.Fatalf("degraded text = %q, want the raw response", content.Text)
	}
	s := content.Structure
	if s.HasHeadings || s.HasTables || s.HasLists || s.HasImages {
		t.Fatalf("degraded structure must be all false: %+v", s)
	}
	if s.DocumentType != "unknown" {
		t.Fatalf("document type = %q", s.DocumentType)
	}
}

func TestNormalizeSchemaViolationDegrades(t *testing.T) {
	// Valid JSON, but text has the wrong type.
	raw := `{"text": 42, "headings": ["H"]}`
	content, ok := Normalize(raw)
	if ok {
		t.Fatal("schema-violating response must degrade")
	}
	if content.Text != raw {
		t.Fatalf("degraded text = %q", content.Text)
	}
}

func TestNormalizeMissingTextDegrades(t *testing.T) {
	raw := `{"headings": ["only headings"]}`
	if _, ok := Normalize(raw); ok {
		t.Fatal("response without text must degrade")
	}
}

func TestNormalizeReconcilesStructureBooleans(t *testing.T) {
	// The model claims headings but supplies none, and denies tables while
	// supplying one.
	raw := `{
		"text": "t",
		"tables": [{"id": "TABLE_1"}],
		"structure": {"has_headings": true, "has_tables": false, "has_lists": false, "has_images": false, "document_type": "form"}
	}`
	content, ok := Normalize(raw)
	if !ok {
		t.Fatal("expected structured parse")
	}
	if content.Structure.HasHeadings {
		t.Fatal("has_headings must be false when no headings are present")
	}
	if !content.Structure.HasTables {
		t.Fatal("has_tables must be true when a table is present")
	}
}

func TestNormalizeNeverReturnsNilLists(t *testing.T) {
	// Both degraded responses and structured responses with absent lists
	// must produce [] in the artifact, not null.
	for name, raw := range map[string]string{
		"degraded":     "plain text, not JSON",
		"absent lists": `{"text": "t"}`,
	} {
		content, _ := Normalize(raw)
		if content.Headings == nil || content.Tables == nil || content.Images == nil {
			t.Errorf("%s: lists must be empty, not nil: %+v", name, content)
		}
	}
}

func TestNormalizeEmptyTextIsValid(t *testing.T) {
	content, ok := Normalize(`{"text": ""}`)
	if !ok {
		t.Fatal("empty text is a valid structured response")
	}
	if content.Text != "" {
		t.Fatalf("text = %q", content.Text)
	}
}
