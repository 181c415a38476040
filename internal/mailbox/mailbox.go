// Package mailbox is the boundary to the message transport. The pipeline
// depends only on Source; IMAP session management stays outside this module
// and hands over opaque (id, raw bytes) pairs.
package mailbox

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

// Message is one raw mail item addressable by an opaque identifier.
type Message struct {
	ID  string
	Raw []byte
}

// Source yields raw messages matching a sender-address filter.
type Source interface {
	// FetchByQuery returns all messages whose From address contains the
	// filter. An empty filter matches everything.
	FetchByQuery(ctx context.Context, filter string) ([]Message, error)
}

// Envelope is the parsed view of a message the grammars dispatch on.
type Envelope struct {
	From    string
	Subject string
	Body    string
}

// ParseEnvelope decodes the RFC 2822 headers and selects a body.
// Multipart messages prefer the text/html part over text/plain, matching
// how issuers ship their notification markup.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message headers: %w", err)
	}

	env := &Envelope{
		From:    msg.Header.Get("From"),
		Subject: msg.Header.Get("Subject"),
	}

	body, err := extractBody(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract message body: %w", err)
	}
	env.Body = body
	return env, nil
}

// extractBody walks the MIME structure and returns the preferred part.
func extractBody(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		data, err := io.ReadAll(msg.Body)
		return string(data), err
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Malformed content type: fall back to the raw body.
		data, readErr := io.ReadAll(msg.Body)
		return string(data), readErr
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipart(msg.Body, params["boundary"],
			msg.Header.Get("Content-Transfer-Encoding"))
	}

	data, err := io.ReadAll(decoded(msg.Body, msg.Header.Get("Content-Transfer-Encoding")))
	return string(data), err
}

// extractMultipart returns the text/html part if present, else text/plain.
func extractMultipart(r io.Reader, boundary, encoding string) (string, error) {
	if boundary == "" {
		data, err := io.ReadAll(r)
		return string(data), err
	}

	var plain, html string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Partial multipart: use what was collected so far.
			break
		}

		mediaType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		data, err := io.ReadAll(decoded(part, part.Header.Get("Content-Transfer-Encoding")))
		if err != nil {
			continue
		}
		switch mediaType {
		case "text/plain":
			plain = string(data)
		case "text/html":
			html = string(data)
		}
	}

	if html != "" {
		return html, nil
	}
	return plain, nil
}

// decoded unwraps the common transfer encodings issuers use.
func decoded(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		// base64 notification bodies have not been observed from the
		// supported issuers; 7bit/8bit pass through unchanged.
		return r
	}
}
