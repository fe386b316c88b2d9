package rulegen

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/docforge/docforge/constants"
	"github.com/docforge/docforge/internal/model"
)

// BuildSystemPrompt describes the four extraction-rule shapes and the exact
// output schema the model must return. The response is treated as untrusted
// either way; this just raises the hit rate.
func BuildSystemPrompt() string {
	parts := []string{
		"You are an extraction-template designer. Given the structure of a document, propose one extraction rule per useful field.",
		"Return ONLY a JSON object of the form {\"fields\": {<fieldName>: <rule>, ...}}.",
		"Each rule has: extractionType (one of table, keyValue, position, pattern), location, dataType (string|number|date|boolean|array), required (bool), sampleValue (string from the document), confidence (0..1), description.",
		"location shapes by extractionType:",
		"table: {tableIndex (required int), searchStrategy: header_match|position|find_cell_with_text, headerName, searchText, columnIndex, rowRange: [start,end], columnMapping: {fieldName: columnIndex}}. Use columnMapping when a table holds repeating rows that should each become a record.",
		"keyValue: {keyName} or {keyPattern} (regex).",
		"position: {page (required int), boundingBox: {top,left,width,height} normalized 0..1 (required)}.",
		"pattern: {searchText (required anchor), pattern (required regex with exactly one capture group)}.",
		"Prefer keyValue over pattern when a detected pair already exists. Use snake_case field names. Never invent sample values.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt renders a bounded textual summary of the document plus the
// caller's optional guidance.
func BuildUserPrompt(doc *model.DocumentModel, userPrompt string) string {
	var b strings.Builder
	if userPrompt = strings.TrimSpace(userPrompt); userPrompt != "" {
		b.WriteString("Instructions: ")
		b.WriteString(userPrompt)
		b.WriteString("\n\n")
	}
	b.WriteString(RenderDocumentSummary(doc))
	b.WriteString("\nPropose extraction rules for this document. Return ONLY the JSON object.")
	return b.String()
}

// RenderDocumentSummary produces the capped structural description sent to
// the model: metadata, every table up to the row cap, all key-value pairs,
// and a sample of text lines.
func RenderDocumentSummary(doc *model.DocumentModel) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Document source: %s. %d table(s), %d key-value pair(s), %d text block(s).\n",
		doc.SourceKind, len(doc.Tables), len(doc.KeyValuePairs), len(doc.TextBlocks))
	if doc.Email != nil {
		fmt.Fprintf(&b, "Email: from %q, subject %q, %d attachment(s).\n",
			doc.Email.From, doc.Email.Subject, len(doc.Email.Attachments))
	}

	for i, t := range doc.Tables {
		fmt.Fprintf(&b, "\nTable %d (page %d, %d rows x %d cols):\n", i, t.Page, t.Rows, t.Columns)
		rows := t.Data
		capped := false
		if len(rows) > constants.PromptMaxTableRows {
			rows = rows[:constants.PromptMaxTableRows]
			capped = true
		}
		for _, row := range rows {
			b.WriteString("| ")
			b.WriteString(strings.Join(row, " | "))
			b.WriteString(" |\n")
		}
		if capped {
			fmt.Fprintf(&b, "…and %d more rows\n", len(t.Data)-constants.PromptMaxTableRows)
		}
	}

	if len(doc.KeyValuePairs) > 0 {
		b.WriteString("\nKey-value pairs:\n")
		for _, kv := range doc.KeyValuePairs {
			fmt.Fprintf(&b, "- %s: %s (page %d)\n", kv.Key, kv.Value, kv.Page)
		}
	}

	writeTextSample(&b, doc)
	return b.String()
}

// writeTextSample prefers a markdown rendering of the DOM when one exists
// (HTML sources), else a capped sample of text blocks.
func writeTextSample(b *strings.Builder, doc *model.DocumentModel) {
	if doc.DOM != nil {
		if md, err := htmltomarkdown.ConvertNode(doc.DOM); err == nil {
			b.WriteString("\nDocument body (markdown):\n")
			writeCappedLines(b, strings.Split(string(md), "\n"))
			return
		}
	}
	if len(doc.TextBlocks) == 0 {
		return
	}
	b.WriteString("\nText sample:\n")
	lines := make([]string, 0, len(doc.TextBlocks))
	for _, tb := range doc.TextBlocks {
		lines = append(lines, fmt.Sprintf("[%s p%d] %s", tb.BlockType, tb.Page, tb.Text))
	}
	writeCappedLines(b, lines)
}

func writeCappedLines(b *strings.Builder, lines []string) {
	n := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if n >= constants.PromptMaxTextLines {
			fmt.Fprintf(b, "…and %d more lines\n", len(lines)-n)
			return
		}
		if len(line) > constants.PromptMaxLineLen {
			line = line[:constants.PromptMaxLineLen] + "…"
		}
		b.WriteString(line)
		b.WriteString("\n")
		n++
	}
}
