package normalize

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/model"
)

// textPolicy strips every tag (script/style contents included) leaving only
// visible text, which we then whitespace-collapse into the full-text string.
var textPolicy = bluemonday.StrictPolicy()

func (s *Service) normalizeHTML(raw []byte) (*model.DocumentModel, error) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, common.NormalizationError("unparsable HTML", err)
	}

	doc := &model.DocumentModel{DOM: root}
	walkHTML(root, doc)

	doc.FullText = collapseWhitespace(textPolicy.Sanitize(string(raw)))
	if doc.FullText == "" && len(doc.Tables) == 0 {
		return nil, common.NormalizationError("HTML document has no extractable content", nil)
	}
	return doc, nil
}

// walkHTML derives headings/paragraphs/lists/tables as auxiliary structure.
// HTML has no pages; everything lands on page 1 with zero geometry.
func walkHTML(n *html.Node, doc *model.DocumentModel) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript:
			return

		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			if text := nodeText(n); text != "" {
				doc.TextBlocks = append(doc.TextBlocks, model.TextBlock{
					Text: text, BlockType: "heading", Page: 1,
				})
			}
			return

		case atom.P:
			if text := nodeText(n); text != "" {
				doc.TextBlocks = append(doc.TextBlocks, model.TextBlock{
					Text: text, BlockType: "paragraph", Page: 1,
				})
			}
			return

		case atom.Li:
			if text := nodeText(n); text != "" {
				doc.TextBlocks = append(doc.TextBlocks, model.TextBlock{
					Text: text, BlockType: "list_item", Page: 1,
				})
			}
			return

		case atom.Table:
			if t := htmlTable(n); len(t.Data) > 0 {
				doc.Tables = append(doc.Tables, t)
			}
			return

		case atom.Dl:
			htmlDefinitionPairs(n, doc)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(c, doc)
	}
}

// htmlTable flattens a <table> into rows of cell text. thead/tbody nesting is
// transparent; th and td both count as cells.
func htmlTable(n *html.Node) model.Table {
	t := model.Table{Page: 1}
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
					row = append(row, nodeText(c))
				}
			}
			if len(row) > 0 {
				t.Data = append(t.Data, row)
				if len(row) > t.Columns {
					t.Columns = len(row)
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	t.Rows = len(t.Data)
	return t
}

// htmlDefinitionPairs turns <dt>/<dd> sequences into key-value pairs.
func htmlDefinitionPairs(n *html.Node, doc *model.DocumentModel) {
	var key string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Dt:
				key = nodeText(n)
				return
			case atom.Dd:
				if key != "" {
					doc.KeyValuePairs = append(doc.KeyValuePairs, model.KeyValuePair{
						Key: key, Value: nodeText(n), Confidence: 1, Page: 1,
					})
					key = ""
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
}

// nodeText collects the visible text beneath a node, whitespace-collapsed.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return collapseWhitespace(b.String())
}
