package parsers

import (
	"encoding/csv"
	"io"
	"strings"
)

// ReadHeader reads the first CSV record of r. Probing must never trial-parse
// the body, so only one record is consumed.
func ReadHeader(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\uFEFF"))
	}
	return header, nil
}

// HeaderMatches reports whether every required column name appears in the
// header. Extra columns are ignored, so optional columns never affect
// format detection.
func HeaderMatches(header []string, required ...string) bool {
	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[name] = true
	}
	for _, name := range required {
		if !present[name] {
			return false
		}
	}
	return true
}

// IndexColumns maps column names to their position so parsers can bind
// fields by name instead of position.
func IndexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return idx
}
