// Package encoding turns byte streams of unknown charset into UTF-8 readers.
// Bank and HR exports arrive as UTF-8, UTF-16 with BOM, or a Windows
// single-byte codepage depending on which tool produced them.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// peekSize covers BOM detection and gives chardet enough sample to work with.
const peekSize = 4096

var boms = []struct {
	prefix  []byte
	decoder func(*bufio.Reader) io.Reader
}{
	{
		prefix: []byte{0xEF, 0xBB, 0xBF},
		decoder: func(br *bufio.Reader) io.Reader {
			_, _ = br.Discard(3)
			return br
		},
	},
	{
		prefix: []byte{0xFF, 0xFE},
		decoder: func(br *bufio.Reader) io.Reader {
			return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
		},
	},
	{
		prefix: []byte{0xFE, 0xFF},
		decoder: func(br *bufio.Reader) io.Reader {
			return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder())
		},
	},
}

// charsets maps chardet results to decoders. Anything unrecognized falls back
// to Windows-1252, which decodes every byte and covers the common legacy case.
var charsets = map[string]*charmap.Charmap{
	"ISO-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"ISO-8859-9":   charmap.ISO8859_9,
	"ISO-8859-15":  charmap.ISO8859_15,
}

// NewUTF8Reader wraps r in a reader that yields UTF-8. A BOM decides
// immediately; otherwise valid UTF-8 passes through untouched and anything
// else goes through charset detection with a Windows-1252 fallback.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	buf, err := br.Peek(peekSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	for _, bom := range boms {
		if bytes.HasPrefix(buf, bom.prefix) {
			return bom.decoder(br), nil
		}
	}

	if utf8.Valid(buf) {
		return br, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		if result.Charset == "UTF-8" {
			return br, nil
		}

		if cm, ok := charsets[result.Charset]; ok {
			return transform.NewReader(br, cm.NewDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}
