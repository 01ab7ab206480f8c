package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActivityType tags a PartialActivity. Direction (deposit vs withdrawal,
// buy vs sell) is always encoded here, never by the sign of an amount.
type ActivityType string

const (
	ActivityBuy            ActivityType = "BUY"
	ActivitySell           ActivityType = "SELL"
	ActivityCashDeposit    ActivityType = "CASH_DEPOSIT"
	ActivityCashWithdrawal ActivityType = "CASH_WITHDRAWAL"
	ActivityAssetConvert   ActivityType = "ASSET_CONVERT"
	ActivityGift           ActivityType = "GIFT"
	ActivityFee            ActivityType = "FEE"
	ActivityDividend       ActivityType = "DIVIDEND"
	ActivityInterest       ActivityType = "INTEREST"
)

// PartialActivity is the canonical, source-agnostic transaction record every
// parser produces. Instances are created through the Create* constructors
// only, so every record is well-formed by construction: the timestamp is
// normalized to UTC, amounts are non-negative and ExternalID carries the
// broker-assigned natural key used for downstream deduplication.
type PartialActivity struct {
	Type     ActivityType
	Currency Currency // empty for pure-asset records (converts, crypto gifts)
	Date     time.Time

	// SymbolIdentifiers is ordered by priority, most specific first, so a
	// resolver can try candidates in order. Empty for cash-only records.
	SymbolIdentifiers []PartialSymbolIdentifier

	Amount    decimal.Decimal // cash amount for cash-like records
	Quantity  decimal.Decimal // asset quantity for Buy/Sell/Gift/Interest
	UnitPrice decimal.Decimal // price per unit in Currency, Buy/Sell only

	// AssetConvert only: the receiving side of the conversion.
	// SymbolIdentifiers/Quantity hold the sending side.
	ToSymbolIdentifiers []PartialSymbolIdentifier
	ToQuantity          decimal.Decimal

	ExternalID string
}

// TotalTransactionAmount reconstructs the displayed total of a trade row:
// quantity x unit price, in the trade currency.
func (a PartialActivity) TotalTransactionAmount() Money {
	return NewMoney(a.Quantity.Mul(a.UnitPrice), a.Currency)
}

func CreateCashDeposit(currency Currency, date time.Time, amount decimal.Decimal, externalID string) PartialActivity {
	return PartialActivity{
		Type:       ActivityCashDeposit,
		Currency:   currency,
		Date:       date.UTC(),
		Amount:     amount.Abs(),
		ExternalID: externalID,
	}
}

func CreateCashWithdrawal(currency Currency, date time.Time, amount decimal.Decimal, externalID string) PartialActivity {
	return PartialActivity{
		Type:       ActivityCashWithdrawal,
		Currency:   currency,
		Date:       date.UTC(),
		Amount:     amount.Abs(),
		ExternalID: externalID,
	}
}

func CreateBuy(currency Currency, date time.Time, symbols []PartialSymbolIdentifier, quantity, unitPrice decimal.Decimal, externalID string) PartialActivity {
	return PartialActivity{
		Type:              ActivityBuy,
		Currency:          currency,
		Date:              date.UTC(),
		SymbolIdentifiers: symbols,
		Quantity:          quantity.Abs(),
		UnitPrice:         unitPrice.Abs(),
		ExternalID:        externalID,
	}
}

func CreateSell(currency Currency, date time.Time, symbols []PartialSymbolIdentifier, quantity, unitPrice decimal.Decimal, externalID string) PartialActivity {
	return PartialActivity{
		Type:              ActivitySell,
		Currency:          currency,
		Date:              date.UTC(),
		SymbolIdentifiers: symbols,
		Quantity:          quantity.Abs(),
		UnitPrice:         unitPrice.Abs(),
		ExternalID:        externalID,
	}
}

func CreateAssetConvert(date time.Time, fromSymbols []PartialSymbolIdentifier, fromQuantity decimal.Decimal, toSymbols []PartialSymbolIdentifier, toQuantity decimal.Decimal, externalID string) PartialActivity {
	return PartialActivity{
		Type:                ActivityAssetConvert,
		Date:                date.UTC(),
		SymbolIdentifiers:   fromSymbols,
		Quantity:            fromQuantity.Abs(),
		ToSymbolIdentifiers: toSymbols,
		ToQuantity:          toQuantity.Abs(),
		ExternalID:          externalID,
	}
}

// CreateGift records a received asset quantity (cashback, referral bonus).
func CreateGift(date time.Time, symbols []PartialSymbolIdentifier, quantity decimal.Decimal, externalID string) PartialActivity {
	return PartialActivity{
		Type:              ActivityGift,
		Date:              date.UTC(),
		SymbolIdentifiers: symbols,
		Quantity:          quantity.Abs(),
		ExternalID:        externalID,
	}
}

// CreateCashGift records a gift paid out in fiat.
func CreateCashGift(currency Currency, date time.Time, amount decimal.Decimal, externalID string) PartialActivity {
	return PartialActivity{
		Type:       ActivityGift,
		Currency:   currency,
		Date:       date.UTC(),
		Amount:     amount.Abs(),
		ExternalID: externalID,
	}
}

func CreateFee(currency Currency, date time.Time, amount decimal.Decimal, externalID string) PartialActivity {
	return PartialActivity{
		Type:       ActivityFee,
		Currency:   currency,
		Date:       date.UTC(),
		Amount:     amount.Abs(),
		ExternalID: externalID,
	}
}

func CreateDividend(currency Currency, date time.Time, amount decimal.Decimal, externalID string) PartialActivity {
	return PartialActivity{
		Type:       ActivityDividend,
		Currency:   currency,
		Date:       date.UTC(),
		Amount:     amount.Abs(),
		ExternalID: externalID,
	}
}

func CreateInterest(currency Currency, date time.Time, amount decimal.Decimal, externalID string) PartialActivity {
	return PartialActivity{
		Type:       ActivityInterest,
		Currency:   currency,
		Date:       date.UTC(),
		Amount:     amount.Abs(),
		ExternalID: externalID,
	}
}

// CreateAssetInterest records interest paid out in an asset rather than
// cash, as crypto-lending platforms do.
func CreateAssetInterest(date time.Time, symbols []PartialSymbolIdentifier, quantity decimal.Decimal, externalID string) PartialActivity {
	return PartialActivity{
		Type:              ActivityInterest,
		Date:              date.UTC(),
		SymbolIdentifiers: symbols,
		Quantity:          quantity.Abs(),
		ExternalID:        externalID,
	}
}
