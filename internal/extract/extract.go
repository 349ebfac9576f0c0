// Package extract turns uploaded files into plain text. Formatting is
// discarded on purpose: the downstream pipeline only ever sees text.
package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
)

type ErrorKind int

const (
	UnsupportedType ErrorKind = iota
	CorruptFile
	EmptyResult
)

func (k ErrorKind) String() string {
	switch k {
	case UnsupportedType:
		return "unsupported type"
	case CorruptFile:
		return "corrupt file"
	case EmptyResult:
		return "empty result"
	}
	return "unknown"
}

// Error is a per-file extraction failure. One failing file never fails a
// batch; callers report it and move on.
type Error struct {
	Kind ErrorKind
	File string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.File, e.Kind, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.File, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// OCRFunc performs image-to-text via the vision generation path.
type OCRFunc func(ctx context.Context, mimeType, imageB64 string) (string, error)

type Extractor struct {
	OCR OCRFunc
}

var imageMimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".bmp":  "image/bmp",
}

// Extract produces plain text for the given file. Unknown extensions fall
// back to a placeholder naming the file instead of failing, so one odd file
// cannot sink an import batch.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".txt", ".md", ".markdown", ".text":
		return string(data), nil

	case ".pdf":
		text, err := extractPDF(data)
		if err != nil {
			return "", &Error{Kind: CorruptFile, File: filename, Err: err}
		}
		if strings.TrimSpace(text) == "" {
			return "", &Error{Kind: EmptyResult, File: filename}
		}
		return text, nil

	case ".docx":
		text, err := extractDOCX(data)
		if err != nil {
			return "", &Error{Kind: CorruptFile, File: filename, Err: err}
		}
		if strings.TrimSpace(text) == "" {
			return "", &Error{Kind: EmptyResult, File: filename}
		}
		return text, nil
	}

	if mime, ok := imageMimeTypes[ext]; ok {
		if e.OCR == nil {
			return "", &Error{Kind: UnsupportedType, File: filename, Err: fmt.Errorf("no OCR backend configured")}
		}
		text, err := e.OCR(ctx, mime, base64.StdEncoding.EncodeToString(data))
		if err != nil {
			return "", &Error{Kind: CorruptFile, File: filename, Err: err}
		}
		if strings.TrimSpace(text) == "" {
			return "", &Error{Kind: EmptyResult, File: filename}
		}
		return text, nil
	}

	return "Imported file: " + filename, nil
}
