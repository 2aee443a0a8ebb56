// Package parser implements the first stage of C4: turning raw file bytes
// into plain text, dispatched by the filename's extension.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	pdf "github.com/dslipak/pdf"

	"github.com/Balizero1987/ayo-sub004/internal/types"
)

// imageMarker is stripped from extracted PDF text (§4.4 step 1).
const imageMarker = "[image]"

// Parse extracts plain text from raw bytes, choosing a strategy from the
// filename hint's extension. Unknown extensions are treated as plain text.
func Parse(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return parsePDF(data)
	case ".md", ".markdown":
		return parseMarkdown(data), nil
	case ".json":
		return parseJSON(data)
	case ".jsonl":
		return parseJSONL(data)
	case ".html", ".htm":
		return parseHTML(data)
	default:
		return string(data), nil
	}
}

func parsePDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parser: open pdf: %w: %v", types.ErrInputInvalid, err)
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(strings.ReplaceAll(text, imageMarker, ""))
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

// parseMarkdown keeps markdown as-is; the structure and chunking stages
// operate on the raw markdown text, treating headings as soft breaks.
func parseMarkdown(data []byte) string {
	return string(data)
}

// parseJSON reads a single-document JSON ingestion file: either a bare
// string or an object carrying a "text", "content" or "full_text" field.
func parseJSON(data []byte) (string, error) {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		return asString, nil
	}

	var asObject map[string]interface{}
	if err := json.Unmarshal(data, &asObject); err != nil {
		return "", fmt.Errorf("parser: invalid json: %w: %v", types.ErrInputInvalid, err)
	}
	for _, key := range []string{"text", "content", "full_text"} {
		if v, ok := asObject[key].(string); ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("parser: json has no text/content/full_text field: %w", types.ErrInputInvalid)
}

// parseJSONL concatenates the text field of each line-delimited record,
// skipping malformed lines rather than failing the whole file.
func parseJSONL(data []byte) (string, error) {
	lines := bytes.Split(data, []byte("\n"))
	var buf strings.Builder
	for _, line := range lines {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var record map[string]interface{}
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		for _, key := range []string{"text", "content", "full_text"} {
			if v, ok := record[key].(string); ok {
				buf.WriteString(v)
				buf.WriteString("\n")
				break
			}
		}
	}
	return buf.String(), nil
}

func parseHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parser: invalid html: %w: %v", types.ErrInputInvalid, err)
	}
	doc.Find("script, style, nav, footer").Remove()
	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	return normalizeWhitespace(text), nil
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}
