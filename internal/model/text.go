package model

import "strings"

// CanonicalText builds the canonical string for an expense from its
// transcription, vendor, and description. The same normalization is applied
// at training and inference time so vectors stay comparable: fields are
// trimmed, empty fields dropped, and interior whitespace collapsed.
func CanonicalText(transcription, vendor, description string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{transcription, vendor, description} {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
