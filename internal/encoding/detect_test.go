package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpereiran/txlink/internal/encoding"
)

func decode(t *testing.T, input []byte) string {
	t.Helper()

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "id,description\ntx1,Transferência de José\n"

	assert.Equal(t, input, decode(t, []byte(input)))
}

func TestNewUTF8Reader_Windows1252(t *testing.T) {
	// "José" with é as the Windows-1252 byte 0xE9.
	input := []byte{
		'i', 'd', ',', 'n', 'a', 'm', 'e', '\n',
		'u', '1', ',', 'J', 'o', 's', 0xE9, '\n',
	}

	assert.Equal(t, "id,name\nu1,José\n", decode(t, input))
}

func TestNewUTF8Reader_UTF8BOMStripped(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,name\n")...)

	assert.Equal(t, "id,name\n", decode(t, input))
}

func TestNewUTF8Reader_UTF16LE(t *testing.T) {
	// "id\n" as UTF-16 little endian with BOM.
	input := []byte{0xFF, 0xFE, 'i', 0x00, 'd', 0x00, '\n', 0x00}

	assert.Equal(t, "id\n", decode(t, input))
}

func TestNewUTF8Reader_Empty(t *testing.T) {
	assert.Equal(t, "", decode(t, nil))
}
