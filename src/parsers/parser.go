package parsers

import (
	"io"

	"github.com/mbks/GhostfolioSidekick/src/holdings"
)

// Parser is implemented once per source format.
type Parser interface {
	// CanParse is a cheap structural probe: it inspects the header row and
	// reports whether this parser understands the file. It never returns an
	// error; unsupported or corrupt input is simply "false".
	CanParse(r io.Reader) bool

	// ParseActivities streams rows and emits partial activities into the
	// sink under the given account name. Any malformed row (bad date,
	// unknown transaction type, missing required field) fails the whole
	// parse; no partial output is committed for the file.
	ParseActivities(r io.Reader, sink holdings.Collection, accountName string) error
}
