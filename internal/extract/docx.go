package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// extractDOCX pulls raw text out of word/document.xml, discarding all
// formatting. Text runs (w:t) are concatenated; paragraph ends (w:p) and
// explicit breaks (w:br) become newlines, tabs (w:tab) become tabs.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var doc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return "", err
			}
			break
		}
	}
	if doc == nil {
		return "", errors.New("word/document.xml not found")
	}
	defer doc.Close()

	var out strings.Builder
	dec := xml.NewDecoder(doc)
	inRunText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inRunText = true
			case "br":
				out.WriteByte('\n')
			case "tab":
				out.WriteByte('\t')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inRunText = false
			case "p":
				out.WriteByte('\n')
			}
		case xml.CharData:
			if inRunText {
				out.Write(t)
			}
		}
	}
	return out.String(), nil
}
