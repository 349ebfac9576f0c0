package extract

import (
	"bytes"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDF concatenates per-page text in page order. Page breaks become
// whitespace; layout is not preserved. Text is pulled from the page content
// streams, so pages that are pure scans yield nothing here (those go through
// the OCR path instead, as whole-image uploads).
func extractPDF(data []byte) (string, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for pageNum := 1; pageNum <= pdfCtx.PageCount; pageNum++ {
		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNum)
		if err != nil {
			return "", err
		}
		if r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		if page := textFromContentStream(content); page != "" {
			if out.Len() > 0 {
				out.WriteByte('\n')
			}
			out.WriteString(page)
		}
	}
	return out.String(), nil
}

// textFromContentStream pulls the string operands of text-showing operators
// out of a decoded page content stream. Best effort: literal strings inside
// BT/ET text objects, with the standard backslash escapes. Hex strings and
// exotic encodings are skipped.
func textFromContentStream(b []byte) string {
	var out strings.Builder
	inText := false

	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == '(':
			s, n := readLiteralString(b[i:])
			if inText && s != "" {
				if out.Len() > 0 {
					out.WriteByte(' ')
				}
				out.WriteString(s)
			}
			i += n

		case c == '<':
			// hex string or dict open; skip to the matching '>'
			j := bytes.IndexByte(b[i+1:], '>')
			if j < 0 {
				return out.String()
			}
			i += j + 2

		case c == 'B' && hasWord(b, i, "BT"):
			inText = true
			i += 2

		case c == 'E' && hasWord(b, i, "ET"):
			inText = false
			i += 2

		default:
			i++
		}
	}
	return out.String()
}

// readLiteralString reads a parenthesized PDF string starting at b[0] == '('
// and returns the decoded text plus the number of bytes consumed.
func readLiteralString(b []byte) (string, int) {
	var out strings.Builder
	depth := 0
	i := 0
	for i < len(b) {
		c := b[i]
		switch c {
		case '\\':
			if i+1 >= len(b) {
				return out.String(), i + 1
			}
			i++
			switch b[i] {
			case 'n':
				out.WriteByte('\n')
			case 'r':
				out.WriteByte('\r')
			case 't':
				out.WriteByte('\t')
			case 'b', 'f':
				// ignored
			case '(', ')', '\\':
				out.WriteByte(b[i])
			default:
				if b[i] >= '0' && b[i] <= '7' {
					v := int(b[i] - '0')
					for k := 0; k < 2 && i+1 < len(b) && b[i+1] >= '0' && b[i+1] <= '7'; k++ {
						i++
						v = v*8 + int(b[i]-'0')
					}
					if v > 0 && v < 256 {
						out.WriteByte(byte(v))
					}
				}
			}
			i++
		case '(':
			depth++
			if depth > 1 {
				out.WriteByte(c)
			}
			i++
		case ')':
			depth--
			if depth == 0 {
				return out.String(), i + 1
			}
			out.WriteByte(c)
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String(), i
}

// hasWord reports whether word starts at b[i] as a standalone token.
func hasWord(b []byte, i int, word string) bool {
	if i+len(word) > len(b) || string(b[i:i+len(word)]) != word {
		return false
	}
	if i > 0 && !isPDFDelim(b[i-1]) {
		return false
	}
	return i+len(word) == len(b) || isPDFDelim(b[i+len(word)])
}

func isPDFDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
