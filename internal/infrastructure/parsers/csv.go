package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// listSeparator separates multiple aliases or groups inside one CSV cell.
const listSeparator = ";"

// CSVParser parses releasers from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed releasers.
// Expected columns: name, kind, country, aliases, groups
func (p *CSVParser) Parse(r io.Reader) ([]RawReleaser, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range []string{"name", "kind"} {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawReleaser, error) {
	var releasers []RawReleaser
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		releasers = append(releasers, RawReleaser{
			Name:    getColumn(record, colIndex, "name"),
			Kind:    getColumn(record, colIndex, "kind"),
			Country: getColumn(record, colIndex, "country"),
			Aliases: splitList(getColumn(record, colIndex, "aliases")),
			Groups:  splitList(getColumn(record, colIndex, "groups")),
			LineNum: lineNum,
		})
	}

	return releasers, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func splitList(cell string) []string {
	var out []string
	for _, part := range strings.Split(cell, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
