package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO fiat code or a free-form crypto ticker.
// Equality is exact code match.
type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	GBP Currency = "GBP"
	GBX Currency = "GBX" // pence sterling, UK instruments are quoted in it
	CHF Currency = "CHF"
	SEK Currency = "SEK"
	NOK Currency = "NOK"
	DKK Currency = "DKK"
	PLN Currency = "PLN"
	CZK Currency = "CZK"
	HUF Currency = "HUF"
	RON Currency = "RON"
	CAD Currency = "CAD"
	AUD Currency = "AUD"
	JPY Currency = "JPY"
)

var knownFiat = map[Currency]bool{
	EUR: true, USD: true, GBP: true, GBX: true, CHF: true,
	SEK: true, NOK: true, DKK: true, PLN: true, CZK: true,
	HUF: true, RON: true, CAD: true, AUD: true, JPY: true,
}

// IsFiat reports whether c is one of the predefined fiat currencies.
// Anything else is accepted as a crypto ticker.
func (c Currency) IsFiat() bool {
	return knownFiat[c]
}

// MapPlatformCurrency resolves platform-specific fiat tokens to their fiat
// currency. Crypto-lending ledgers report fiat balances as pegged tokens
// with an X suffix (EURX, USDX); everything else is returned unchanged.
func MapPlatformCurrency(code string) Currency {
	code = strings.TrimSpace(code)
	if stripped, ok := strings.CutSuffix(code, "X"); ok && knownFiat[Currency(stripped)] {
		return Currency(stripped)
	}
	return Currency(code)
}

// Money is an immutable amount in a single currency. Arithmetic across
// differing currencies is invalid unless explicitly converted first.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

// Add returns the sum of m and other, or an error when the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("cannot add %s to %s", other.Currency, m.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Times scales the amount, keeping the currency.
func (m Money) Times(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.String(), m.Currency)
}
