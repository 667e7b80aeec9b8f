package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses releasers from a JSON array.
type JSONParser struct{}

// Parse reads JSON from the reader and returns parsed releasers.
func (p *JSONParser) Parse(r io.Reader) ([]RawReleaser, error) {
	var releasers []RawReleaser

	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&releasers); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Array index + 1
	for i := range releasers {
		releasers[i].LineNum = i + 1
	}

	return releasers, nil
}
