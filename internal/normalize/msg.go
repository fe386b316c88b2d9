package normalize

import (
	"bytes"
	"encoding/binary"
	"io"
	"net/mail"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/model"
)

// MAPI property tags we read out of the compound file. Streams are named
// __substg1.0_TTTTFFFF: TTTT is the tag, FFFF the type (001F = UTF-16LE,
// 001E = 8-bit string, 0102 = binary).
const (
	tagSubject          = "0037"
	tagSenderName       = "0C1A"
	tagSenderEmail      = "5D01"
	tagDisplayTo        = "0E04"
	tagDisplayCc        = "0E03"
	tagDisplayBcc       = "0E02"
	tagBody             = "1000"
	tagHTMLBody         = "1013"
	tagTransportHeaders = "007D"
	tagAttachLongName   = "3707"
	tagAttachShortName  = "3704"
	tagAttachMimeTag    = "370E"
)

// normalizeMSG parses the Outlook binary message format: an OLE compound file
// whose property streams carry headers, body, and attachment entries.
func (s *Service) normalizeMSG(raw []byte) (*model.DocumentModel, error) {
	cf, err := mscfb.New(bytes.NewReader(raw))
	if err != nil {
		return nil, common.NormalizationError("unparsable Outlook message", err)
	}

	props := map[string]string{}
	var htmlBody []byte
	attachments := map[string]*model.AttachmentMeta{}

	for entry, err := cf.Next(); err == nil; entry, err = cf.Next() {
		tag, typ, ok := substgTag(entry.Name)
		if !ok {
			continue
		}
		data := make([]byte, entry.Size)
		if _, rerr := io.ReadFull(entry, data); rerr != nil && rerr != io.ErrUnexpectedEOF {
			continue
		}

		if att := attachStorage(entry.Path); att != "" {
			m := attachments[att]
			if m == nil {
				m = &model.AttachmentMeta{}
				attachments[att] = m
			}
			switch tag {
			case tagAttachLongName:
				m.Filename = decodeProp(data, typ)
			case tagAttachShortName:
				if m.Filename == "" {
					m.Filename = decodeProp(data, typ)
				}
			case tagAttachMimeTag:
				m.ContentType = decodeProp(data, typ)
			}
			continue
		}
		if len(entry.Path) > 0 {
			continue // recipient and nested storages
		}

		if tag == tagHTMLBody {
			htmlBody = data
			continue
		}
		props[tag] = decodeProp(data, typ)
	}

	meta := &model.EmailMeta{
		From:    strings.TrimSpace(strings.TrimSpace(props[tagSenderName] + " " + props[tagSenderEmail])),
		Subject: props[tagSubject],
		To:      splitRecipients(props[tagDisplayTo]),
		Cc:      splitRecipients(props[tagDisplayCc]),
		Bcc:     splitRecipients(props[tagDisplayBcc]),
	}
	if d, ok := headerDate(props[tagTransportHeaders]); ok {
		meta.Date = d
	}
	for _, m := range attachments {
		if m.Filename != "" {
			meta.Attachments = append(meta.Attachments, *m)
		}
	}

	doc, err := s.emailBody(string(htmlBody), props[tagBody])
	if err != nil {
		return nil, err
	}
	doc.Email = meta
	doc.KeyValuePairs = append(headerPairs(meta), doc.KeyValuePairs...)
	return doc, nil
}

// substgTag splits a __substg1.0_TTTTFFFF stream name into tag and type.
func substgTag(name string) (tag, typ string, ok bool) {
	const prefix = "__substg1.0_"
	if !strings.HasPrefix(name, prefix) || len(name) < len(prefix)+8 {
		return "", "", false
	}
	hex := name[len(prefix):]
	return strings.ToUpper(hex[:4]), strings.ToUpper(hex[4:8]), true
}

// attachStorage returns the attachment storage name when the stream lives
// under an __attach_version1.0_#NNNNNNNN storage.
func attachStorage(path []string) string {
	for _, p := range path {
		if strings.HasPrefix(p, "__attach_version1.0_") {
			return p
		}
	}
	return ""
}

func decodeProp(data []byte, typ string) string {
	switch typ {
	case "001F":
		return decodeUTF16LE(data)
	case "001E", "0102":
		return strings.TrimRight(string(data), "\x00")
	}
	return ""
}

func decodeUTF16LE(data []byte) string {
	u16 := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		u16 = append(u16, binary.LittleEndian.Uint16(data[i:]))
	}
	return strings.TrimRight(string(utf16.Decode(u16)), "\x00")
}

func splitRecipients(display string) []string {
	if strings.TrimSpace(display) == "" {
		return nil
	}
	parts := strings.Split(display, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// headerDate pulls the Date header out of the transport headers blob.
func headerDate(headers string) (time.Time, bool) {
	for _, line := range strings.Split(headers, "\n") {
		if rest, found := strings.CutPrefix(strings.TrimSpace(line), "Date:"); found {
			if t, err := mail.ParseDate(strings.TrimSpace(rest)); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
