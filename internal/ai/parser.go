package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"notewise/internal/note"
)

// Section markers the summarization prompt asks for. The model is not
// contractually bound to produce them, or to produce them in order.
const (
	overviewMarker  = "### Overview"
	conceptsMarker  = "### Key Concepts & Details"
	takeawaysMarker = "### Main Takeaways"
)

const (
	// FallbackSummary is returned when no summary text can be recovered at all.
	FallbackSummary = "Overview could not be reliably extracted."
	// FallbackKeyPoints is the single-element key-points list used when the
	// concepts and takeaways sections are both absent or empty.
	FallbackKeyPoints = "Could not extract specific takeaways."
)

// SummaryResult holds the parsed pieces of a summarization reply.
type SummaryResult struct {
	Summary   string
	KeyPoints []string
}

type summarySection int

const (
	beforeOverview summarySection = iota
	inOverview
	inConcepts
	inTakeaways
)

// ParseSummary segments a markdown-sectioned summarization reply into the
// overview summary and an ordered key-points line list. It never fails:
// every malformed input degrades to one of the fallback values. Section
// markers may appear in any order or not at all; marker-looking lines inside
// fenced code blocks are treated as content.
func ParseSummary(response string) SummaryResult {
	state := beforeOverview
	inFence := false

	var overview, concepts, takeaways []string
	overviewSeen := false

	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		} else if !inFence {
			switch {
			case strings.HasPrefix(trimmed, overviewMarker):
				state = inOverview
				overviewSeen = true
				continue
			case strings.HasPrefix(trimmed, conceptsMarker):
				state = inConcepts
				continue
			case strings.HasPrefix(trimmed, takeawaysMarker):
				state = inTakeaways
				continue
			}
		}

		switch state {
		case inOverview:
			overview = append(overview, line)
		case inConcepts:
			concepts = append(concepts, line)
		case inTakeaways:
			takeaways = append(takeaways, line)
		}
	}

	summary := ""
	if overviewSeen {
		summary = strings.TrimSpace(strings.Join(overview, "\n"))
	}
	if summary == "" {
		summary = fallbackSummaryText(response)
	}

	// Concepts first, then takeaways, regardless of the order the model
	// emitted them in. Lines are kept verbatim; only blank edges go.
	combined := append(trimBlankEdges(concepts), trimBlankEdges(takeaways)...)
	if len(combined) == 0 {
		combined = []string{FallbackKeyPoints}
	}

	return SummaryResult{Summary: summary, KeyPoints: combined}
}

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)

// fallbackSummaryText recovers a summary when the overview section is absent
// or empty: the first one to three sentences, else the first paragraph, else
// the whole trimmed response, else the fallback constant.
func fallbackSummaryText(response string) string {
	if sentences := sentenceRe.FindAllString(response, 3); len(sentences) > 0 {
		for i := range sentences {
			sentences[i] = strings.TrimSpace(sentences[i])
		}
		if joined := strings.TrimSpace(strings.Join(sentences, " ")); joined != "" {
			return joined
		}
	}
	if idx := strings.Index(response, "\n\n"); idx != -1 {
		if para := strings.TrimSpace(response[:idx]); para != "" {
			return para
		}
	}
	if whole := strings.TrimSpace(response); whole != "" {
		return whole
	}
	return FallbackSummary
}

func trimBlankEdges(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

// Suggestions is the parsed tagging reply. All three fields were present in
// the embedded JSON object; absence of any of them fails the whole parse.
type Suggestions struct {
	SuggestedTags   []note.SuggestedTag  `json:"suggested_tags"`
	SuggestedLinks  []note.SuggestedLink `json:"suggested_links"`
	SummaryKeywords []string             `json:"summary_keywords"`
}

// ParseSuggestions extracts the single JSON object embedded in a tagging
// reply, tolerating prose around the braces. Returns nil when the braces are
// absent or inverted, the JSON does not parse, or any required field is
// missing. Never a partially-filled result.
func ParseSuggestions(raw string) *Suggestions {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return nil
	}

	var probe struct {
		SuggestedTags   *[]note.SuggestedTag  `json:"suggested_tags"`
		SuggestedLinks  *[]note.SuggestedLink `json:"suggested_links"`
		SummaryKeywords *[]string             `json:"summary_keywords"`
	}
	if err := json.Unmarshal(obj, &probe); err != nil {
		return nil
	}
	if probe.SuggestedTags == nil || probe.SuggestedLinks == nil || probe.SummaryKeywords == nil {
		return nil
	}
	return &Suggestions{
		SuggestedTags:   *probe.SuggestedTags,
		SuggestedLinks:  *probe.SuggestedLinks,
		SummaryKeywords: *probe.SummaryKeywords,
	}
}

// ParseFlashcards extracts the flashcards array from a flashcard reply.
// Returns nil on any parse failure; a present-but-empty array is a valid,
// empty result.
func ParseFlashcards(raw string) []note.Flashcard {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return nil
	}
	var probe struct {
		Flashcards *[]note.Flashcard `json:"flashcards"`
	}
	if err := json.Unmarshal(obj, &probe); err != nil {
		return nil
	}
	if probe.Flashcards == nil {
		return nil
	}
	cards := *probe.Flashcards
	if cards == nil {
		cards = []note.Flashcard{}
	}
	return cards
}

// extractJSONObject slices the text between the first '{' and the last '}'.
func extractJSONObject(raw string) ([]byte, bool) {
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first == -1 || last == -1 || last < first {
		return nil, false
	}
	return []byte(raw[first : last+1]), true
}
