package models

// Account mirrors a remote portfolio account. Lookups are keyed by Name,
// which the remote service keeps unique; parsers only ever see the name.
type Account struct {
	ID       string
	Name     string
	Currency Currency
	Balance  Money
}
