package normalize

import (
	"bytes"
	"net/mail"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/model"
)

// normalizeEML parses an RFC 5322 / MIME message. The HTML body is preferred
// over plain text when both are present; attachments contribute metadata only.
func (s *Service) normalizeEML(raw []byte) (*model.DocumentModel, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, common.NormalizationError("unparsable email message", err)
	}

	meta := &model.EmailMeta{
		From:    env.GetHeader("From"),
		Subject: env.GetHeader("Subject"),
	}
	meta.To = addressList(env, "To")
	meta.Cc = addressList(env, "Cc")
	meta.Bcc = addressList(env, "Bcc")
	if d, err := mail.ParseDate(env.GetHeader("Date")); err == nil {
		meta.Date = d
	}
	for _, att := range env.Attachments {
		meta.Attachments = append(meta.Attachments, model.AttachmentMeta{
			Filename:    att.FileName,
			ContentType: att.ContentType,
			Size:        len(att.Content),
		})
	}

	doc, err := s.emailBody(env.HTML, env.Text)
	if err != nil {
		return nil, err
	}
	doc.Email = meta
	doc.KeyValuePairs = append(headerPairs(meta), doc.KeyValuePairs...)
	return doc, nil
}

// emailBody builds the body portion of the model: HTML body goes through the
// HTML normalizer so tables and structure survive; plain text is split into
// paragraph blocks.
func (s *Service) emailBody(htmlBody, textBody string) (*model.DocumentModel, error) {
	if strings.TrimSpace(htmlBody) != "" {
		doc, err := s.normalizeHTML([]byte(htmlBody))
		if err == nil {
			return doc, nil
		}
		// fall through to the plain body when the HTML part is broken
	}
	doc := &model.DocumentModel{}
	textBody = strings.ReplaceAll(textBody, "\r\n", "\n")
	for _, para := range strings.Split(textBody, "\n\n") {
		if text := collapseWhitespace(para); text != "" {
			doc.TextBlocks = append(doc.TextBlocks, model.TextBlock{
				Text: text, BlockType: "paragraph", Page: 1,
			})
		}
	}
	doc.FullText = collapseWhitespace(textBody)
	if doc.FullText == "" && len(doc.TextBlocks) == 0 {
		return nil, common.NormalizationError("email has no readable body", nil)
	}
	return doc, nil
}

// headerPairs exposes headers as key-value pairs so keyValue rules can target
// them the same way they target OCR-detected labels.
func headerPairs(meta *model.EmailMeta) []model.KeyValuePair {
	pairs := []model.KeyValuePair{
		{Key: "From", Value: meta.From, Confidence: 1, Page: 1},
		{Key: "Subject", Value: meta.Subject, Confidence: 1, Page: 1},
	}
	if len(meta.To) > 0 {
		pairs = append(pairs, model.KeyValuePair{Key: "To", Value: strings.Join(meta.To, ", "), Confidence: 1, Page: 1})
	}
	if len(meta.Cc) > 0 {
		pairs = append(pairs, model.KeyValuePair{Key: "Cc", Value: strings.Join(meta.Cc, ", "), Confidence: 1, Page: 1})
	}
	if !meta.Date.IsZero() {
		pairs = append(pairs, model.KeyValuePair{Key: "Date", Value: meta.Date.Format(time.RFC3339), Confidence: 1, Page: 1})
	}
	return pairs
}

func addressList(env *enmime.Envelope, header string) []string {
	addrs, err := env.AddressList(header)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Address)
	}
	return out
}
