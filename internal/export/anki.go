// Package export renders a note's flashcards into interchange formats: an
// Anki-style JSON document and a printable PDF card sheet.
package export

import (
	"regexp"
	"strings"

	"notewise/internal/note"
)

type AnkiFields struct {
	Front string `json:"Front"`
	Back  string `json:"Back"`
}

type AnkiNote struct {
	DeckName  string     `json:"deckName"`
	ModelName string     `json:"modelName"`
	Fields    AnkiFields `json:"fields"`
	Tags      []string   `json:"tags"`
}

type AnkiExport struct {
	Notes []AnkiNote `json:"notes"`
}

const deckPrefix = "SmartSummarizer"

// AnkiDeck groups one record per flashcard under a deck named after the note
// title. Tag names are normalized for Anki: runs of whitespace become single
// underscores.
func AnkiDeck(title string, cards []note.Flashcard, tagNames []string) AnkiExport {
	deck := deckPrefix + " Deck"
	if title != "" {
		deck = deckPrefix + "::" + title
	}

	tags := make([]string, 0, len(tagNames))
	for _, name := range tagNames {
		if t := strings.Join(strings.Fields(name), "_"); t != "" {
			tags = append(tags, t)
		}
	}

	out := AnkiExport{Notes: make([]AnkiNote, 0, len(cards))}
	for _, c := range cards {
		out.Notes = append(out.Notes, AnkiNote{
			DeckName:  deck,
			ModelName: "Basic",
			Fields:    AnkiFields{Front: c.Front, Back: c.Back},
			Tags:      tags,
		})
	}
	return out
}

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9_]`)

// SafeFileName derives a download file stem from a note title.
func SafeFileName(title string) string {
	s := unsafeFileChars.ReplaceAllString(strings.ToLower(title), "_")
	if strings.Trim(s, "_") == "" {
		return "flashcards"
	}
	return s
}
