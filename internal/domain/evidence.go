package domain

import "time"

// snippetLen bounds the content excerpt returned to callers.
const snippetLen = 500

// Evidence is one ranked retrieval hit handed to the external
// answer-generation step.
type Evidence struct {
	Source     string    `json:"source"`
	Snippet    string    `json:"snippet"`
	Link       string    `json:"link,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Similarity float64   `json:"similarity"`
}

// EvidenceFromDocument builds an evidence entry with a truncated snippet.
func EvidenceFromDocument(doc *Document, similarity float64) Evidence {
	return Evidence{
		Source:     doc.Source,
		Snippet:    truncate(doc.Text, snippetLen),
		Link:       doc.Link,
		Timestamp:  doc.Timestamp,
		Similarity: similarity,
	}
}
