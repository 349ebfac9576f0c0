package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainTextPassthrough(t *testing.T) {
	e := &Extractor{}

	for _, name := range []string{"notes.txt", "readme.md", "doc.markdown"} {
		got, err := e.Extract(context.Background(), name, []byte("hello world"))
		require.NoError(t, err)
		assert.Equal(t, "hello world", got)
	}
}

func TestExtractUnknownTypeYieldsPlaceholder(t *testing.T) {
	e := &Extractor{}

	got, err := e.Extract(context.Background(), "slides.pptx", []byte{0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, "Imported file: slides.pptx", got)
}

func TestExtractDOCX(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second</w:t><w:tab/><w:t>column</w:t></w:r></w:p>
  </w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(docXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	e := &Extractor{}
	got, err := e.Extract(context.Background(), "report.docx", buf.Bytes())
	require.NoError(t, err)
	assert.Contains(t, got, "First paragraph\n")
	assert.Contains(t, got, "Second\tcolumn")
}

func TestExtractDOCXMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	e := &Extractor{}
	_, err = e.Extract(context.Background(), "report.docx", buf.Bytes())

	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, CorruptFile, xerr.Kind)
	assert.Equal(t, "report.docx", xerr.File)
}

func TestExtractCorruptDOCX(t *testing.T) {
	e := &Extractor{}
	_, err := e.Extract(context.Background(), "broken.docx", []byte("not a zip"))

	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, CorruptFile, xerr.Kind)
}

func TestExtractCorruptPDF(t *testing.T) {
	e := &Extractor{}
	_, err := e.Extract(context.Background(), "broken.pdf", []byte("%PDF-garbage"))

	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, CorruptFile, xerr.Kind)
}

func TestExtractImageUsesOCR(t *testing.T) {
	img := []byte{0x89, 0x50, 0x4e, 0x47}
	e := &Extractor{OCR: func(ctx context.Context, mimeType, imageB64 string) (string, error) {
		assert.Equal(t, "image/png", mimeType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(img), imageB64)
		return "scanned text", nil
	}}

	got, err := e.Extract(context.Background(), "scan.png", img)
	require.NoError(t, err)
	assert.Equal(t, "scanned text", got)
}

func TestExtractImageWithoutOCRBackend(t *testing.T) {
	e := &Extractor{}
	_, err := e.Extract(context.Background(), "scan.jpg", []byte{0xff})

	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, UnsupportedType, xerr.Kind)
}

func TestExtractImageOCRFailure(t *testing.T) {
	e := &Extractor{OCR: func(ctx context.Context, mimeType, imageB64 string) (string, error) {
		return "", errors.New("vision model unavailable")
	}}
	_, err := e.Extract(context.Background(), "scan.jpeg", []byte{0xff})

	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, CorruptFile, xerr.Kind)
}

func TestExtractImageEmptyOCRResult(t *testing.T) {
	e := &Extractor{OCR: func(ctx context.Context, mimeType, imageB64 string) (string, error) {
		return "   ", nil
	}}
	_, err := e.Extract(context.Background(), "blank.png", []byte{0xff})

	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, EmptyResult, xerr.Kind)
}
