package mail

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/charmap"

	_ "github.com/emersion/go-message/charset"
)

// ParseMessage extracts the sender and the plain-text body from one raw
// RFC 822 message. Multipart messages yield the first text/plain part;
// bytes that are not valid UTF-8 fall back to a Latin-1 decode.
func ParseMessage(r io.Reader) (Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return Message{}, fmt.Errorf("read message: %w", err)
	}

	var out Message
	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		out.SenderName = addrs[0].Name
		out.SenderAddr = addrs[0].Address
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Message{}, fmt.Errorf("read part: %w", err)
		}
		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, err := h.ContentType()
		if err != nil || ct != "text/plain" {
			continue
		}
		b, err := io.ReadAll(p.Body)
		if err != nil {
			return Message{}, fmt.Errorf("read body: %w", err)
		}
		out.Body = decodeText(b)
		break
	}
	return out, nil
}

func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// Latin-1 decoding cannot actually fail; keep the raw bytes just in case.
		return string(b)
	}
	return strings.ToValidUTF8(string(decoded), "")
}
