package ingest

import (
	"bytes"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExtractText turns uploaded document bytes into plain text. Binary
// format extraction (PDF, DOCX) is an external collaborator's job; this
// boundary handles plain text only, decoding UTF-8 leniently and
// normalizing line endings.
func ExtractText(content []byte, _ string) string {
	content = bytes.TrimPrefix(content, utf8BOM)
	text := strings.ToValidUTF8(string(content), "")
	return strings.ReplaceAll(text, "\r\n", "\n")
}
