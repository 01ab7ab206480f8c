package models

// SymbolKind distinguishes how a partial symbol identifier should be
// resolved against the remote symbol catalog.
type SymbolKind string

const (
	SymbolKindCrypto  SymbolKind = "CRYPTO"
	SymbolKindGeneric SymbolKind = "GENERIC"
)

// PartialSymbolIdentifier references a tradable asset before it has been
// resolved to a concrete entry in the remote service's symbol catalog.
// Parsers emit these; resolution happens later in the sync client.
type PartialSymbolIdentifier struct {
	Identifier string
	Kind       SymbolKind

	// Exchange is an optional hint for generic identifiers; ticker
	// collisions across exchanges are common.
	Exchange string
}

// CreateCryptoIdentifier builds an identifier for a crypto ticker.
func CreateCryptoIdentifier(ticker string) PartialSymbolIdentifier {
	return PartialSymbolIdentifier{Identifier: ticker, Kind: SymbolKindCrypto}
}

// CreateGenericIdentifier builds an identifier for an ISIN, ticker or other
// free-form id, with an optional exchange hint.
func CreateGenericIdentifier(identifier, exchange string) PartialSymbolIdentifier {
	return PartialSymbolIdentifier{Identifier: identifier, Kind: SymbolKindGeneric, Exchange: exchange}
}
