package ai

import (
	"fmt"
	"strings"

	"notewise/internal/note"
)

const summarizationPromptTemplate = `Please provide a comprehensive and well-structured summary of the following text.
Your goal is to rephrase and synthesize the information, ensuring that all significant points, arguments, concepts, and supporting details are covered accurately.
Summarize the core information and main points of the text directly, as if you are explaining it to someone who has not read the original document. Avoid meta-commentary about the document itself. Instead, directly present the information.

Organize your response exactly as follows, using markdown for formatting:

### Overview
Provide a concise, high-level summary of the entire text (2-4 sentences) that captures its main purpose and scope.

### Key Concepts & Details
Identify and elaborate on all core concepts, methodologies, and significant points discussed in the text. For each item:
- Present it as: **Identified Term/Concept:** Followed by a detailed explanation of that term/concept.
- If the explanation involves a list of principles, practices, steps, or sub-details, use markdown bullet points ('-') under the respective bolded term.

### Main Takeaways
List 3-5 distinct and insightful conclusions or critical implications derived from the text.
Present each takeaway as a markdown bullet point ('-').

Here is the text:

{{NOTE_CONTENT}}`

const taggingPromptTemplate = `Analyze the following note content AND its AI-generated summary (if provided). Based on this analysis, provide:
1. A list of 3-5 general and relevant topic tags. Prefer broader topic tags over extremely niche ones unless the niche is central to the document.
2. A list of 2-3 keywords extracted directly from the AI-generated summary of the note.
3. A list of suggested links to other notes that are semantically related to this note's content (1-2 highly relevant links if any).

Note Content to Analyze:
` + "```" + `
{{NOTE_CONTENT}}
` + "```" + `

AI-Generated Summary of the Note (use this to extract summary_keywords):
` + "```" + `
{{AI_SUMMARY_CONTENT}}
` + "```" + `

Existing Tags for this Note (for context, avoid suggesting these exact tags again):
{{EXISTING_TAGS}}

List of All Other Available Note Titles and their IDs (for link suggestions):
{{ALL_NOTE_TITLES_AND_IDS}}

Please format your response as a single JSON object with the following exact structure:
{
  "suggested_tags": [
    {"name": "string (general categorical tag name)", "category": "string (e.g., Broad Subject, Main Field)"}
  ],
  "summary_keywords": [
    "string (keyword from summary)"
  ],
  "suggested_links": [
    {
      "note_id": "string (ID of the related note)",
      "note_title": "string (Title of the related note)",
      "reason": "string (brief explanation for the link suggestion)"
    }
  ]
}

If no relevant items are found for any field, return an empty array for that field.`

const flashcardPromptTemplate = `Based on the provided AI-generated summary text, please extract key information and transform it into a series of concise and informative flashcards.
Each flashcard should represent an important concept, definition, or key fact suitable for learning and review.

Format your response as a JSON object containing an array called "flashcards". Each object in the array should have two properties: "front" (for the question, term, or prompt) and "back" (for the concise answer or detailed definition/explanation).

- Aim for 8-15 high-quality flashcards, prioritizing clarity and importance.
- Ensure the information is directly and accurately derived from the provided summary text.

AI Summary Text to Process:
` + "```" + `
{{AI_SUMMARY_CONTENT}}
` + "```" + `

If the summary is too short or no distinct, meaningful flashcard points can be extracted, return an empty "flashcards" array.`

// OCRPrompt instructs the vision model to return extracted text only.
const OCRPrompt = "Extract all text from this image. Return only the extracted text, nothing else."

func SummarizationPrompt(content string) string {
	return strings.Replace(summarizationPromptTemplate, "{{NOTE_CONTENT}}", content, 1)
}

func TaggingPrompt(content, summary string, existingTags []string, directory []note.NoteTitle) string {
	p := strings.Replace(taggingPromptTemplate, "{{NOTE_CONTENT}}", content, 1)

	if summary == "" {
		summary = "Not available"
	}
	p = strings.Replace(p, "{{AI_SUMMARY_CONTENT}}", summary, 1)

	tags := strings.Join(existingTags, ", ")
	if tags == "" {
		tags = "None"
	}
	p = strings.Replace(p, "{{EXISTING_TAGS}}", tags, 1)

	var b strings.Builder
	for _, d := range directory {
		fmt.Fprintf(&b, "- %s (ID: %s)\n", d.Title, d.ID)
	}
	titles := strings.TrimSuffix(b.String(), "\n")
	if titles == "" {
		titles = "None available"
	}
	return strings.Replace(p, "{{ALL_NOTE_TITLES_AND_IDS}}", titles, 1)
}

func FlashcardPrompt(summary string) string {
	return strings.Replace(flashcardPromptTemplate, "{{AI_SUMMARY_CONTENT}}", summary, 1)
}
