package mailService

import (
	"encoding/base64"
	"net/mail"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"google.golang.org/api/gmail/v1"
)

const noContent = "No content found"

// Elements dropped together with their content.
var blockedElements = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Iframe: true,
	atom.Object: true,
}

func decodeBase64URL(data string) string {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return strings.ToValidUTF8(string(decoded), "")
}

// extractBody walks the MIME tree and returns displayable HTML. An HTML
// part wins over plain text; plain text is escaped and wrapped in <pre>.
func extractBody(payload *gmail.MessagePart) string {
	var htmlBody, textBody string

	var walk func(part *gmail.MessagePart)
	walk = func(part *gmail.MessagePart) {
		if part == nil {
			return
		}
		if part.Body != nil && part.Body.Data != "" {
			decoded := decodeBase64URL(part.Body.Data)
			switch part.MimeType {
			case "text/html":
				htmlBody = decoded
			case "text/plain":
				if textBody == "" {
					textBody = decoded
				}
			}
		}
		for _, p := range part.Parts {
			walk(p)
		}
	}
	walk(payload)

	if htmlBody != "" {
		return sanitizeHTML(htmlBody)
	}
	if textBody != "" {
		return "<pre>" + html.EscapeString(textBody) + "</pre>"
	}
	return noContent
}

// sanitizeHTML re-serialises src through the tokenizer, dropping active
// content: script-like elements, event handler attributes and javascript:
// URLs. Comments and doctypes are dropped too.
func sanitizeHTML(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	skip := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if blockedElements[tok.DataAtom] {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if skip > 0 {
				continue
			}
			tok.Attr = safeAttrs(tok.Attr)
			b.WriteString(tok.String())
		case html.EndTagToken:
			tok := z.Token()
			if blockedElements[tok.DataAtom] {
				if skip > 0 {
					skip--
				}
				continue
			}
			if skip > 0 {
				continue
			}
			b.WriteString(tok.String())
		case html.TextToken:
			if skip > 0 {
				continue
			}
			b.WriteString(z.Token().String())
		}
	}
}

func safeAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") {
			continue
		}
		if (key == "href" || key == "src") && strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// findHeader searches the part and its children, ignoring case.
func findHeader(part *gmail.MessagePart, name string) string {
	if part == nil {
		return ""
	}
	for _, h := range part.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	for _, p := range part.Parts {
		if v := findHeader(p, name); v != "" {
			return v
		}
	}
	return ""
}

func formatDate(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := mail.ParseDate(raw)
	if err != nil {
		return raw
	}
	return t.Format("02 Jan 15:04")
}
