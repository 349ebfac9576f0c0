package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"golang.org/x/image/font"

	"notewise/internal/note"
)

// Card sheet geometry, in millimeters on an A4 page: 85x55 cards, two
// columns by four rows, eight cards per page.
const (
	pxPerMM      = 4
	pageWmm      = 210
	pageHmm      = 297
	cardWmm      = 85
	cardHmm      = 55
	marginMM     = 10
	gutterMM     = 5
	cardPadMM    = 5
	cardsPerRow  = 2
	rowsPerPage  = 4
	cardsPerPage = cardsPerRow * rowsPerPage
)

// CardSheetPDF renders flashcards onto fixed-size printable cards and
// assembles the pages into a PDF. fontPath optionally names a TTF file; with
// an empty path the built-in bitmap face is used.
func CardSheetPDF(cards []note.Flashcard, fontPath string) ([]byte, error) {
	if len(cards) == 0 {
		return nil, errors.New("no flashcards to render")
	}

	face, err := loadFontFace(fontPath, 12)
	if err != nil {
		return nil, err
	}

	var pages []io.Reader
	for start := 0; start < len(cards); start += cardsPerPage {
		end := start + cardsPerPage
		if end > len(cards) {
			end = len(cards)
		}
		png, err := renderPage(cards[start:end], face)
		if err != nil {
			return nil, err
		}
		pages = append(pages, bytes.NewReader(png))
	}

	var out bytes.Buffer
	imp := pdfcpu.DefaultImportConfig()
	if err := api.ImportImages(nil, &out, pages, imp, nil); err != nil {
		return nil, fmt.Errorf("assemble pdf: %w", err)
	}
	return out.Bytes(), nil
}

func renderPage(cards []note.Flashcard, face font.Face) ([]byte, error) {
	dc := gg.NewContext(pageWmm*pxPerMM, pageHmm*pxPerMM)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	if face != nil {
		dc.SetFontFace(face)
	}

	for i, c := range cards {
		col := i % cardsPerRow
		row := i / cardsPerRow
		x := float64((marginMM + col*(cardWmm+gutterMM)) * pxPerMM)
		y := float64((marginMM + row*(cardHmm+gutterMM)) * pxPerMM)
		drawCard(dc, c, x, y)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawCard(dc *gg.Context, c note.Flashcard, x, y float64) {
	w := float64(cardWmm * pxPerMM)
	h := float64(cardHmm * pxPerMM)
	pad := float64(cardPadMM * pxPerMM)

	dc.SetRGB(0.8, 0.8, 0.8)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()

	dc.SetRGB(0, 0, 0)
	textW := w - 2*pad
	dc.DrawStringWrapped("FRONT: "+c.Front, x+pad, y+pad, 0, 0, textW, 1.3, gg.AlignLeft)
	dc.DrawStringWrapped("BACK: "+c.Back, x+pad, y+h/2, 0, 0, textW, 1.3, gg.AlignLeft)
}

func loadFontFace(path string, size float64) (font.Face, error) {
	if path == "" {
		return nil, nil
	}
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(parsed, &truetype.Options{Size: size}), nil
}
