package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawMessage(s string) *strings.Reader {
	return strings.NewReader(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseMessageSimple(t *testing.T) {
	msg, err := ParseMessage(rawMessage(`From: Juan Perez <juan@example.com>
To: ventas@samla.mx
Subject: orden de pedido
Content-Type: text/plain; charset=utf-8

quiero 5 laptops hp y 3 impresoras epson
`))
	require.NoError(t, err)

	assert.Equal(t, "Juan Perez", msg.SenderName)
	assert.Equal(t, "juan@example.com", msg.SenderAddr)
	assert.Contains(t, msg.Body, "5 laptops hp")
}

func TestParseMessageMultipartPrefersPlainText(t *testing.T) {
	msg, err := ParseMessage(rawMessage(`From: cliente@example.com
Subject: orden de pedido
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="BOUNDARY"

--BOUNDARY
Content-Type: text/html; charset=utf-8

<p>quiero <b>5</b> laptops</p>
--BOUNDARY
Content-Type: text/plain; charset=utf-8

quiero 5 laptops
--BOUNDARY--
`))
	require.NoError(t, err)

	assert.Equal(t, "cliente@example.com", msg.SenderAddr)
	assert.Equal(t, "", msg.SenderName)
	assert.NotContains(t, msg.Body, "<p>")
	assert.Contains(t, msg.Body, "quiero 5 laptops")
}

func TestDecodeTextLatin1Fallback(t *testing.T) {
	// "señor" with a raw Latin-1 0xF1, not valid UTF-8
	raw := []byte{'s', 'e', 0xF1, 'o', 'r'}

	assert.Equal(t, "señor", decodeText(raw))
}

func TestDecodeTextUTF8Passthrough(t *testing.T) {
	assert.Equal(t, "señor", decodeText([]byte("señor")))
}
