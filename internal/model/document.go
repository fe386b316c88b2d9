package model

import (
	"time"

	"golang.org/x/net/html"

	"github.com/docforge/docforge/constants"
)

// BoundingBox is normalized page-relative geometry (0..1).
type BoundingBox struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the box area in normalized page units.
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// Intersection returns the area shared between two boxes.
func (b BoundingBox) Intersection(o BoundingBox) float64 {
	left := max(b.Left, o.Left)
	right := min(b.Left+b.Width, o.Left+o.Width)
	top := max(b.Top, o.Top)
	bottom := min(b.Top+b.Height, o.Top+o.Height)
	if right <= left || bottom <= top {
		return 0
	}
	return (right - left) * (bottom - top)
}

// Table is one detected table. Row 0 may be a header row; not guaranteed.
type Table struct {
	Page        int         `json:"page"`
	Rows        int         `json:"rows"`
	Columns     int         `json:"columns"`
	BoundingBox BoundingBox `json:"boundingBox"`
	Data        [][]string  `json:"data"`
}

// HeaderRow returns the first row, or nil for an empty table.
func (t Table) HeaderRow() []string {
	if len(t.Data) == 0 {
		return nil
	}
	return t.Data[0]
}

// KeyValuePair is one detected label/value pairing.
type KeyValuePair struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Page       int     `json:"page"`
}

// TextBlock is one positioned run of text.
type TextBlock struct {
	Text        string      `json:"text"`
	BlockType   string      `json:"blockType"`
	Page        int         `json:"page"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

// AttachmentMeta describes an email attachment without carrying its bytes.
type AttachmentMeta struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// EmailMeta holds parsed email headers and attachment metadata.
type EmailMeta struct {
	From        string           `json:"from,omitempty"`
	To          []string         `json:"to,omitempty"`
	Cc          []string         `json:"cc,omitempty"`
	Bcc         []string         `json:"bcc,omitempty"`
	Subject     string           `json:"subject,omitempty"`
	Date        time.Time        `json:"date,omitempty"`
	Attachments []AttachmentMeta `json:"attachments,omitempty"`
}

// DocumentModel is the canonical representation every normalizer produces and
// every downstream component consumes. Immutable once built.
type DocumentModel struct {
	SourceKind    constants.SourceKind `json:"sourceKind"`
	Tables        []Table              `json:"tables"`
	KeyValuePairs []KeyValuePair       `json:"keyValuePairs"`
	TextBlocks    []TextBlock          `json:"textBlocks"`
	FullText      string               `json:"fullText,omitempty"`
	Email         *EmailMeta           `json:"email,omitempty"`

	// DOM is populated for HTML sources only; not serialized.
	DOM *html.Node `json:"-"`
}
