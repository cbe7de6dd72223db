package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain treats the upload as UTF-8 label text. Bytes that do not
// form valid UTF-8 (typical for a mislabeled binary upload) are replaced
// with U+FFFD rather than rejected.
func extractPlain(content []byte) (string, error) {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return text, nil
}
