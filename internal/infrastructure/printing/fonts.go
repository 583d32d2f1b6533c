package printing

import (
	"fmt"
	"os"

	"golang.org/x/text/encoding/charmap"
)

// Weight selects one of the two font faces
type Weight int

const (
	Regular Weight = iota
	Bold
)

// FontSet is the pair of faces used by a document. It is built once at
// startup and shared read-only between renders.
type FontSet struct {
	family  string
	regular []byte
	bold    []byte
}

// DefaultFontSet uses the built-in Helvetica faces (cp1252 text)
func DefaultFontSet() FontSet {
	return FontSet{family: "Helvetica"}
}

// LoadFontSet reads a regular and a bold TrueType face. Text is then drawn
// as UTF-8 with the fonts embedded in the document.
func LoadFontSet(regularPath, boldPath string) (FontSet, error) {
	regular, err := os.ReadFile(regularPath)
	if err != nil {
		return FontSet{}, NewRenderError(ErrCodeFontLoadFailed, fmt.Sprintf("failed to read font %s", regularPath), err)
	}
	bold, err := os.ReadFile(boldPath)
	if err != nil {
		return FontSet{}, NewRenderError(ErrCodeFontLoadFailed, fmt.Sprintf("failed to read font %s", boldPath), err)
	}
	if len(regular) == 0 || len(bold) == 0 {
		return FontSet{}, NewRenderError(ErrCodeFontLoadFailed, "font file is empty", nil)
	}
	return FontSet{family: "InvoiceSans", regular: regular, bold: bold}, nil
}

// Family is the font family name registered with the document
func (fs FontSet) Family() string {
	if fs.family == "" {
		return "Helvetica"
	}
	return fs.family
}

// Embedded reports whether the set carries TrueType data
func (fs FontSet) Embedded() bool {
	return len(fs.regular) > 0 && len(fs.bold) > 0
}

// style maps a weight to the backend style string
func (w Weight) style() string {
	if w == Bold {
		return "B"
	}
	return ""
}

// Encode converts text to the bytes the faces expect. Embedded TrueType faces
// take UTF-8 unchanged. The built-in faces only cover Windows-1252, and any
// other rune is an ENCODING_FAILED error rather than a substituted glyph.
func (fs FontSet) Encode(text string) (string, error) {
	if fs.Embedded() {
		return text, nil
	}
	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			return "", NewRenderError(ErrCodeEncodingFailed,
				fmt.Sprintf("%s cannot print %q in %q; configure TrueType fonts", fs.Family(), r, text), nil)
		}
		out = append(out, b)
	}
	return string(out), nil
}

// CanEncode reports whether Encode accepts text
func (fs FontSet) CanEncode(text string) bool {
	_, err := fs.Encode(text)
	return err == nil
}

// encodeLossy is Encode with '?' for unsupported runes, for measuring only
func (fs FontSet) encodeLossy(text string) string {
	if fs.Embedded() {
		return text
	}
	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return string(out)
}
