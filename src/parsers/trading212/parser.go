package trading212

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mbks/GhostfolioSidekick/src/holdings"
	"github.com/mbks/GhostfolioSidekick/src/models"
	"github.com/mbks/GhostfolioSidekick/src/parsers"
)

// Column names as exported by Trading 212. The stamp duty columns only
// appear on accounts that traded UK instruments.
const (
	colAction        = "Action"
	colTime          = "Time"
	colISIN          = "ISIN"
	colTicker        = "Ticker"
	colName          = "Name"
	colShares        = "No. of shares"
	colPrice         = "Price / share"
	colPriceCurrency = "Currency (Price / share)"
	colResultCur     = "Currency (Result)"
	colTotal         = "Total"
	colID            = "ID"
	colConvFee       = "Currency conversion fee"
	colConvFeeCur    = "Currency (Currency conversion fee)"
	colStampDuty     = "Stamp duty reserve tax"
	colStampDutyCur  = "Currency (Stamp duty reserve tax)"
)

// timeLayouts lists the timestamp shapes seen in Trading 212 exports; all
// are UTC without a zone designator.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04",
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) CanParse(r io.Reader) bool {
	header, err := parsers.ReadHeader(r)
	if err != nil {
		return false
	}
	return parsers.HeaderMatches(header,
		colAction, colTime, colISIN, colTicker, colShares, colPrice, colPriceCurrency, colID)
}

func (p *Parser) ParseActivities(r io.Reader, sink holdings.Collection, accountName string) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("trading212 parser: failed to read CSV header: %w", err)
	}
	idx := parsers.IndexColumns(header)

	var activities []models.PartialActivity
	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("trading212 parser: row %d: %w", rowNum, err)
		}

		rowActivities, err := p.parseRow(record, idx, rowNum)
		if err != nil {
			return err
		}
		activities = append(activities, rowActivities...)
	}

	return sink.AddPartialActivity(accountName, activities...)
}

func (p *Parser) parseRow(record []string, idx map[string]int, rowNum int) ([]models.PartialActivity, error) {
	action := field(record, idx, colAction)
	externalID := field(record, idx, colID)

	date, err := parseTime(field(record, idx, colTime))
	if err != nil {
		return nil, fmt.Errorf("trading212 parser: row %d: %w", rowNum, err)
	}

	switch action {
	case "Market buy", "Limit buy":
		return p.parseTrade(record, idx, rowNum, date, externalID, true)
	case "Market sell", "Limit sell":
		return p.parseTrade(record, idx, rowNum, date, externalID, false)
	case "Deposit":
		amount, cur, err := cashFields(record, idx, rowNum)
		if err != nil {
			return nil, err
		}
		return []models.PartialActivity{models.CreateCashDeposit(cur, date, amount, externalID)}, nil
	case "Withdrawal":
		amount, cur, err := cashFields(record, idx, rowNum)
		if err != nil {
			return nil, err
		}
		return []models.PartialActivity{models.CreateCashWithdrawal(cur, date, amount, externalID)}, nil
	case "Dividend (Ordinary)":
		amount, cur, err := cashFields(record, idx, rowNum)
		if err != nil {
			return nil, err
		}
		return []models.PartialActivity{models.CreateDividend(cur, date, amount, externalID)}, nil
	case "Interest on cash":
		amount, cur, err := cashFields(record, idx, rowNum)
		if err != nil {
			return nil, err
		}
		return []models.PartialActivity{models.CreateInterest(cur, date, amount, externalID)}, nil
	case "Currency conversion":
		// Moving cash between currencies is not an economic event, but the
		// broker may charge a fee on it.
		if fee := field(record, idx, colConvFee); fee != "" {
			amount, err := decimal.NewFromString(fee)
			if err != nil {
				return nil, fmt.Errorf("trading212 parser: row %d: invalid conversion fee %q: %w", rowNum, fee, err)
			}
			if !amount.IsZero() {
				cur := models.Currency(field(record, idx, colConvFeeCur))
				return []models.PartialActivity{models.CreateFee(cur, date, amount, externalID)}, nil
			}
		}
		return nil, nil
	}

	// Silently dropping an unlisted action would be silent data loss; the
	// vocabulary above must be extended when Trading 212 adds types.
	return nil, fmt.Errorf("trading212 parser: row %d: unknown action %q", rowNum, action)
}

func (p *Parser) parseTrade(record []string, idx map[string]int, rowNum int, date time.Time, externalID string, buy bool) ([]models.PartialActivity, error) {
	quantity, err := decimal.NewFromString(field(record, idx, colShares))
	if err != nil {
		return nil, fmt.Errorf("trading212 parser: row %d: invalid share count %q: %w", rowNum, field(record, idx, colShares), err)
	}
	unitPrice, err := decimal.NewFromString(field(record, idx, colPrice))
	if err != nil {
		return nil, fmt.Errorf("trading212 parser: row %d: invalid price %q: %w", rowNum, field(record, idx, colPrice), err)
	}

	// Trades are recorded in the instrument's trade currency, not the
	// account's result currency.
	currency := models.Currency(field(record, idx, colPriceCurrency))

	symbols := []models.PartialSymbolIdentifier{
		models.CreateGenericIdentifier(field(record, idx, colISIN), ""),
		models.CreateGenericIdentifier(field(record, idx, colTicker), ""),
	}

	var activity models.PartialActivity
	if buy {
		activity = models.CreateBuy(currency, date, symbols, quantity, unitPrice, externalID)
	} else {
		activity = models.CreateSell(currency, date, symbols, quantity, unitPrice, externalID)
	}
	activities := []models.PartialActivity{activity}

	// Fee ids derive from the trade's external id so re-imports stay
	// idempotent while the reconciliation step can still group them with
	// the trade.
	if duty := field(record, idx, colStampDuty); duty != "" {
		amount, err := decimal.NewFromString(duty)
		if err != nil {
			return nil, fmt.Errorf("trading212 parser: row %d: invalid stamp duty %q: %w", rowNum, duty, err)
		}
		if !amount.IsZero() {
			dutyCur := models.Currency(field(record, idx, colStampDutyCur))
			activities = append(activities, models.CreateFee(dutyCur, date, amount, externalID+"_stamp"))
		}
	}

	// Trades settled across currencies carry a conversion fee as well.
	if fee := field(record, idx, colConvFee); fee != "" {
		amount, err := decimal.NewFromString(fee)
		if err != nil {
			return nil, fmt.Errorf("trading212 parser: row %d: invalid conversion fee %q: %w", rowNum, fee, err)
		}
		if !amount.IsZero() {
			feeCur := models.Currency(field(record, idx, colConvFeeCur))
			activities = append(activities, models.CreateFee(feeCur, date, amount, externalID+"_fee"))
		}
	}

	return activities, nil
}

func cashFields(record []string, idx map[string]int, rowNum int) (decimal.Decimal, models.Currency, error) {
	raw := field(record, idx, colTotal)
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("trading212 parser: row %d: invalid total %q: %w", rowNum, raw, err)
	}
	return amount, models.Currency(field(record, idx, colResultCur)), nil
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

// field returns the named column's value, or "" when the column is absent
// from this export or the row is short.
func field(record []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
