package ledger

// encoding.go normalizes the byte encoding of delimited-text exports.
//
// Accounting systems commonly emit CSV with a UTF-8 BOM (Windows tools) or in
// Windows-1252 (older ERPs). Both must decode to the same UTF-8 text so that
// header names such as "Débito" match the schema exactly.

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding selects how delimited-text bytes are decoded.
type Encoding int

const (
	// EncodingAuto uses UTF-8 when the input is valid UTF-8, Windows-1252 otherwise.
	EncodingAuto Encoding = iota
	EncodingUTF8
	EncodingWindows1252
)

// ParseEncoding converts a configuration value to an Encoding.
func ParseEncoding(s string) (Encoding, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return EncodingAuto, true
	case "utf-8", "utf8":
		return EncodingUTF8, true
	case "windows-1252", "cp1252", "latin1", "iso-8859-1":
		return EncodingWindows1252, true
	default:
		return EncodingAuto, false
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText strips a UTF-8 BOM and returns valid UTF-8 text.
// With EncodingUTF8, invalid bytes are replaced with '?'.
func decodeText(data []byte, enc Encoding) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	switch enc {
	case EncodingUTF8:
		return bytes.ToValidUTF8(data, []byte("?")), nil
	case EncodingWindows1252:
		return decodeWindows1252(data)
	default:
		if utf8.Valid(data) {
			return data, nil
		}
		return decodeWindows1252(data)
	}
}

func decodeWindows1252(data []byte) ([]byte, error) {
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode windows-1252: %w", err)
	}
	return out, nil
}
