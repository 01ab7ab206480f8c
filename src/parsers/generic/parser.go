package generic

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

// The generic format is the escape hatch for brokers without a dedicated
// parser: users convert their export into this canonical CSV by hand.
const (
	colOrderType = "OrderType"
	colSymbol    = "Symbol"
	colDate      = "Date"
	colCurrency  = "Currency"
	colQuantity  = "Quantity"
	colUnitPrice = "UnitPrice"
	colFee       = "Fee"
	colID        = "Id"
)

const dateLayout = "2006-01-02"

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
		colOrderType, colSymbol, colDate, colCurrency, colQuantity, colUnitPrice, colID)
}

func (p *Parser) ParseActivities(r io.Reader, sink holdings.Collection, accountName string) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("generic parser: failed to read CSV header: %w", err)
	}
	idx := parsers.IndexColumns(header)

	var activities []models.PartialActivity
	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("generic parser: row %d: %w", rowNum, err)
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
	get := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	date, err := time.Parse(dateLayout, get(colDate))
	if err != nil {
		return nil, fmt.Errorf("generic parser: row %d: invalid date %q", rowNum, get(colDate))
	}
	date = date.UTC()

	currency := models.Currency(get(colCurrency))
	externalID := get(colID)
	orderType := get(colOrderType)

	quantity, err := decimal.NewFromString(get(colQuantity))
	if err != nil {
		return nil, fmt.Errorf("generic parser: row %d: invalid quantity %q: %w", rowNum, get(colQuantity), err)
	}
	unitPrice, err := decimal.NewFromString(get(colUnitPrice))
	if err != nil {
		return nil, fmt.Errorf("generic parser: row %d: invalid unit price %q: %w", rowNum, get(colUnitPrice), err)
	}

	symbols := []models.PartialSymbolIdentifier{
		models.CreateGenericIdentifier(get(colSymbol), ""),
	}

	var activities []models.PartialActivity
	switch orderType {
	case "BUY":
		activities = append(activities, models.CreateBuy(currency, date, symbols, quantity, unitPrice, externalID))
	case "SELL":
		activities = append(activities, models.CreateSell(currency, date, symbols, quantity, unitPrice, externalID))
	case "DIVIDEND":
		// Cash rows carry their total as quantity x unit price.
		activities = append(activities, models.CreateDividend(currency, date, quantity.Mul(unitPrice), externalID))
	case "INTEREST":
		activities = append(activities, models.CreateInterest(currency, date, quantity.Mul(unitPrice), externalID))
	case "FEE":
		activities = append(activities, models.CreateFee(currency, date, quantity.Mul(unitPrice), externalID))
	case "CASHDEPOSIT":
		activities = append(activities, models.CreateCashDeposit(currency, date, quantity.Mul(unitPrice), externalID))
	case "CASHWITHDRAWAL":
		activities = append(activities, models.CreateCashWithdrawal(currency, date, quantity.Mul(unitPrice), externalID))
	default:
		return nil, fmt.Errorf("generic parser: row %d: unknown order type %q", rowNum, orderType)
	}

	if fee := get(colFee); fee != "" {
		amount, err := decimal.NewFromString(fee)
		if err != nil {
			return nil, fmt.Errorf("generic parser: row %d: invalid fee %q: %w", rowNum, fee, err)
		}
		if !amount.IsZero() {
			activities = append(activities, models.CreateFee(currency, date, amount, externalID))
		}
	}

	return activities, nil
}
