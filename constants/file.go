package constants

import "strings"

// SourceKind identifies the family of raw input a document arrived as.
type SourceKind string

const (
	OCRAnalysis SourceKind = "OCR_ANALYSIS"
	HTML        SourceKind = "HTML"
	Email       SourceKind = "EMAIL"
	OutlookMsg  SourceKind = "OUTLOOK_MSG"
	CSV         SourceKind = "CSV"
	XLSX        SourceKind = "XLSX"
)

// extToKind maps normalized file extensions to source kinds. Normalizer
// selection is by extension only; we never content-sniff.
var extToKind = map[string]SourceKind{
	"json": OCRAnalysis,
	"html": HTML,
	"htm":  HTML,
	"eml":  Email,
	"msg":  OutlookMsg,
	"csv":  CSV,
	"xlsx": XLSX,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// KindForExt resolves a file extension to its source kind.
func KindForExt(ext string) (SourceKind, bool) {
	k, ok := extToKind[NormalizeExt(ext)]
	return k, ok
}
