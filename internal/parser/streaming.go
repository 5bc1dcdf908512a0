package parser

// streaming.go wraps input readers so the rest of the parser only ever sees
// UTF-8 without a byte-order mark. Everything here works on buffered chunks;
// no wrapper loads the whole file.

import (
	"bufio"
	"io"
	"unicode/utf16"
	"unicode/utf8"
)

// BOMInfo records what byte-order mark, if any, prefixed the input. It is
// surfaced as metadata; a BOM never blocks parsing.
type BOMInfo struct {
	Present  bool
	Encoding string // "utf-8" or "utf-16le"
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// SniffBOM classifies a BOM from a content sample without consuming input.
func SniffBOM(sample []byte) BOMInfo {
	switch {
	case len(sample) >= 3 && sample[0] == bomUTF8[0] && sample[1] == bomUTF8[1] && sample[2] == bomUTF8[2]:
		return BOMInfo{Present: true, Encoding: "utf-8"}
	case len(sample) >= 2 && sample[0] == bomUTF16LE[0] && sample[1] == bomUTF16LE[1]:
		return BOMInfo{Present: true, Encoding: "utf-16le"}
	default:
		return BOMInfo{}
	}
}

// SkipBOM inspects the head of r, consumes any BOM, and returns a reader
// positioned after it. UTF-16LE input is transparently decoded to UTF-8.
func SkipBOM(r io.Reader) (io.Reader, BOMInfo, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(3)
	if err != nil && err != io.EOF {
		return br, BOMInfo{}, err
	}

	if len(head) >= 3 && head[0] == bomUTF8[0] && head[1] == bomUTF8[1] && head[2] == bomUTF8[2] {
		if _, err := br.Discard(3); err != nil {
			return br, BOMInfo{}, err
		}
		return br, BOMInfo{Present: true, Encoding: "utf-8"}, nil
	}

	if len(head) >= 2 && head[0] == bomUTF16LE[0] && head[1] == bomUTF16LE[1] {
		if _, err := br.Discard(2); err != nil {
			return br, BOMInfo{}, err
		}
		return newUTF16LEReader(br), BOMInfo{Present: true, Encoding: "utf-16le"}, nil
	}

	return br, BOMInfo{}, nil
}

// utf16leReader decodes a UTF-16LE stream to UTF-8 one buffer at a time.
type utf16leReader struct {
	src io.Reader
	// decoded holds UTF-8 bytes not yet handed to the caller.
	decoded []byte
	// pending holds a trailing odd byte or unpaired high surrogate.
	pending []byte
	eof     bool
}

func newUTF16LEReader(src io.Reader) *utf16leReader {
	return &utf16leReader{src: src}
}

func (u *utf16leReader) Read(p []byte) (int, error) {
	for len(u.decoded) == 0 && !u.eof {
		if err := u.fill(); err != nil {
			return 0, err
		}
	}
	if len(u.decoded) == 0 {
		return 0, io.EOF
	}
	n := copy(p, u.decoded)
	u.decoded = u.decoded[n:]
	return n, nil
}

func (u *utf16leReader) fill() error {
	buf := make([]byte, 2048)
	n := copy(buf, u.pending)
	u.pending = u.pending[:0]

	m, err := u.src.Read(buf[n:])
	n += m
	if err == io.EOF {
		u.eof = true
	} else if err != nil {
		return err
	}

	// Hold back a trailing odd byte for the next fill.
	if n%2 == 1 && !u.eof {
		u.pending = append(u.pending, buf[n-1])
		n--
	}

	units := make([]uint16, 0, n/2)
	for i := 0; i+1 < n; i += 2 {
		units = append(units, uint16(buf[i])|uint16(buf[i+1])<<8)
	}

	// Hold back an unpaired trailing high surrogate.
	if !u.eof && len(units) > 0 {
		last := units[len(units)-1]
		if last >= 0xD800 && last <= 0xDBFF {
			units = units[:len(units)-1]
			u.pending = append(u.pending, buf[n-2], buf[n-1])
		}
	}

	out := make([]byte, 0, len(units)*3)
	var scratch [utf8.UTFMax]byte
	for _, r := range utf16.Decode(units) {
		w := utf8.EncodeRune(scratch[:], r)
		out = append(out, scratch[:w]...)
	}
	u.decoded = append(u.decoded, out...)
	return nil
}
