package parsers

import (
	"fmt"
	"os"

	"github.com/mbks/GhostfolioSidekick/src/holdings"
)

// Registry holds the known parsers in a fixed priority order.
type Registry struct {
	parsers []Parser
}

func NewRegistry(parsers ...Parser) *Registry {
	return &Registry{parsers: parsers}
}

// SelectParser probes the registered parsers in order and returns the first
// that claims the file. A nil parser with a nil error means no registered
// format matched; that is not an error, so callers can scan mixed
// directories. Probing is purely structural (header inspection), each
// parser gets a fresh reader.
func (reg *Registry) SelectParser(path string) (Parser, error) {
	for _, p := range reg.parsers {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		ok := p.CanParse(file)
		file.Close()
		if ok {
			return p, nil
		}
	}
	return nil, nil
}

// ParseFile selects a parser for path and runs it against the sink. The
// boolean reports whether any parser claimed the file.
func (reg *Registry) ParseFile(path string, sink holdings.Collection, accountName string) (bool, error) {
	parser, err := reg.SelectParser(path)
	if err != nil {
		return false, err
	}
	if parser == nil {
		return false, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if err := parser.ParseActivities(file, sink, accountName); err != nil {
		return true, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}
