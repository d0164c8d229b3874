package gmail

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/jaytaylor/html2text"
	"google.golang.org/api/gmail/v1"

	"echoloop/internal/domain"
)

// Sentinel values for headers the provider did not include.
const (
	noSubject = "(No Subject)"
	noSender  = "Unknown"
	noBody    = "(No body)"
	errBody   = "(Error extracting body)"
)

// Date header layouts seen in the wild, tried in order. Anything else
// defaults to the fetch time; a lossy but deliberate approximation.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04:05 -0700",
}

func (s *Source) parseMessage(msg *gmail.Message) (domain.Message, error) {
	if msg.Payload == nil {
		return domain.Message{}, fmt.Errorf("message %s has no payload", msg.Id)
	}

	subject := header(msg, "Subject")
	if subject == "" {
		subject = noSubject
	}

	sender := header(msg, "From")
	if sender == "" {
		sender = noSender
	}

	receivedAt := s.now().UTC()
	if dateStr := header(msg, "Date"); dateStr != "" {
		if t, ok := parseDate(dateStr); ok {
			receivedAt = t
		} else {
			s.logger.Warn("could not parse date header", "id", msg.Id, "date", dateStr)
		}
	}

	return domain.Message{
		ExternalID: msg.Id,
		Sender:     sender,
		Subject:    subject,
		Body:       extractBody(msg),
		ReceivedAt: receivedAt,
	}, nil
}

func header(msg *gmail.Message, name string) string {
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func parseDate(value string) (time.Time, bool) {
	// Strip trailing comments like "(UTC)".
	if i := strings.Index(value, "("); i > 0 {
		value = value[:i]
	}
	value = strings.TrimSpace(value)

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// extractBody prefers a plain-text part; an HTML-only message is
// converted to text with link destinations preserved.
func extractBody(msg *gmail.Message) string {
	if text, ok := decodePart(msg.Payload.Parts, "text/plain"); ok {
		return text
	}

	if html, ok := decodePart(msg.Payload.Parts, "text/html"); ok {
		text, err := html2text.FromString(html, html2text.Options{TextOnly: false})
		if err != nil {
			return errBody
		}
		return text
	}

	if msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		if d, err := base64.URLEncoding.DecodeString(msg.Payload.Body.Data); err == nil {
			return string(d)
		}
		return errBody
	}

	return noBody
}

func decodePart(parts []*gmail.MessagePart, mimeType string) (string, bool) {
	for _, p := range parts {
		if p.MimeType == mimeType && p.Body != nil && p.Body.Data != "" {
			d, err := base64.URLEncoding.DecodeString(p.Body.Data)
			if err != nil {
				continue
			}
			return string(d), true
		}
		// Multipart alternatives nest one level down.
		if nested, ok := decodePart(p.Parts, mimeType); ok {
			return nested, true
		}
	}
	return "", false
}
