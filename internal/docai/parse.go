package docai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseDocumentJSON parses the JSON response from the model into a Document
func parseDocumentJSON(text string) (*Document, error) {
	// Remove markdown code blocks if present
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	// Extract just the JSON part
	text = text[startIdx : endIdx+1]

	var doc Document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	// Drop entities without a type tag; the extractor keys on the tag and an
	// untagged entity carries no usable signal
	entities := doc.Entities[:0]
	for _, e := range doc.Entities {
		e.Type = strings.TrimSpace(e.Type)
		if e.Type == "" {
			continue
		}
		entities = append(entities, e)
	}
	doc.Entities = entities

	if doc.Entities == nil {
		doc.Entities = []Entity{}
	}

	return &doc, nil
}
