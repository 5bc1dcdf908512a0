package parser

import (
	"io"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utf16le(s string) string {
	var b strings.Builder
	for _, u := range utf16.Encode([]rune(s)) {
		b.WriteByte(byte(u))
		b.WriteByte(byte(u >> 8))
	}
	return b.String()
}

func TestSkipBOM_UTF8(t *testing.T) {
	r, bom, err := SkipBOM(strings.NewReader("\xEF\xBB\xBFa,b\n"))
	require.NoError(t, err)
	assert.True(t, bom.Present)
	assert.Equal(t, "utf-8", bom.Encoding)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

func TestSkipBOM_None(t *testing.T) {
	r, bom, err := SkipBOM(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.False(t, bom.Present)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

func TestSkipBOM_UTF16LEDecodes(t *testing.T) {
	input := "\xFF\xFE" + utf16le("Date,Café\n2025-01-01,1.00\n")
	r, bom, err := SkipBOM(strings.NewReader(input))
	require.NoError(t, err)
	assert.True(t, bom.Present)
	assert.Equal(t, "utf-16le", bom.Encoding)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Date,Café\n2025-01-01,1.00\n", string(data))
}

func TestSniffBOM(t *testing.T) {
	assert.True(t, SniffBOM([]byte{0xEF, 0xBB, 0xBF, 'a'}).Present)
	assert.Equal(t, "utf-16le", SniffBOM([]byte{0xFF, 0xFE, 0x00, 0x00}).Encoding)
	assert.False(t, SniffBOM([]byte("plain")).Present)
}
