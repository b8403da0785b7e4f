package mailService

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"strings"
)

type header struct {
	name  string
	value string
}

var headerNewlines = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// buildRawMessage renders a UTF-8 text/plain message in the base64url
// form expected by users.messages.send.
func buildRawMessage(to, subject, body string, extra ...header) (string, error) {
	var buf bytes.Buffer

	headers := append([]header{
		{name: "To", value: to},
		{name: "Subject", value: mime.QEncoding.Encode("utf-8", headerNewlines.Replace(subject))},
	}, extra...)

	for _, h := range headers {
		if h.value == "" {
			continue
		}
		fmt.Fprintf(&buf, "%s: %s\r\n", h.name, headerNewlines.Replace(h.value))
	}
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(body)); err != nil {
		return "", err
	}
	if err := qp.Close(); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
