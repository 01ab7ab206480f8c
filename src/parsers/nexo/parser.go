package nexo

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mbks/GhostfolioSidekick/src/holdings"
	"github.com/mbks/GhostfolioSidekick/src/models"
	"github.com/mbks/GhostfolioSidekick/src/parsers"
)

const (
	colTransaction = "Transaction"
	colType        = "Type"
	colInputCur    = "Input Currency"
	colInputAmt    = "Input Amount"
	colOutputCur   = "Output Currency"
	colOutputAmt   = "Output Amount"
	colUSDEquiv    = "USD Equivalent"
	colDetails     = "Details"
	colDateTime    = "Date / Time"
)

// Nexo exports timestamps in UTC.
const timeLayout = "2006-01-02 15:04:05"

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
		colTransaction, colType, colInputCur, colInputAmt, colOutputCur, colOutputAmt, colDateTime)
}

func (p *Parser) ParseActivities(r io.Reader, sink holdings.Collection, accountName string) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("nexo parser: failed to read CSV header: %w", err)
	}
	idx := parsers.IndexColumns(header)

	var activities []models.PartialActivity
	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("nexo parser: row %d: %w", rowNum, err)
		}

		row, err := bindRow(record, idx, rowNum)
		if err != nil {
			return err
		}

		rowActivities, err := p.parseRow(row)
		if err != nil {
			return err
		}
		activities = append(activities, rowActivities...)
	}

	return sink.AddPartialActivity(accountName, activities...)
}

// row is one ledger entry with its fields already validated.
type row struct {
	num        int
	externalID string
	typ        string
	inputCur   models.Currency
	inputAmt   decimal.Decimal
	outputCur  models.Currency
	outputAmt  decimal.Decimal
	details    string
	date       time.Time
}

func bindRow(record []string, idx map[string]int, rowNum int) (row, error) {
	get := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	date, err := time.Parse(timeLayout, get(colDateTime))
	if err != nil {
		return row{}, fmt.Errorf("nexo parser: row %d: invalid timestamp %q", rowNum, get(colDateTime))
	}

	inputAmt, err := decimal.NewFromString(get(colInputAmt))
	if err != nil {
		return row{}, fmt.Errorf("nexo parser: row %d: invalid input amount %q: %w", rowNum, get(colInputAmt), err)
	}
	outputAmt, err := decimal.NewFromString(get(colOutputAmt))
	if err != nil {
		return row{}, fmt.Errorf("nexo parser: row %d: invalid output amount %q: %w", rowNum, get(colOutputAmt), err)
	}

	return row{
		num:        rowNum,
		externalID: get(colTransaction),
		typ:        get(colType),
		inputCur:   models.MapPlatformCurrency(get(colInputCur)),
		inputAmt:   inputAmt,
		outputCur:  models.MapPlatformCurrency(get(colOutputCur)),
		outputAmt:  outputAmt,
		details:    get(colDetails),
		date:       date.UTC(),
	}, nil
}

func (p *Parser) parseRow(r row) ([]models.PartialActivity, error) {
	switch r.typ {
	case "Deposit", "Exchange Deposited On":
		if !r.outputCur.IsFiat() {
			// Crypto deposits need an explicit mapping before they can be
			// synced; failing here beats silently mispricing holdings.
			return nil, fmt.Errorf("nexo parser: row %d: unsupported non-fiat deposit in %s", r.num, r.outputCur)
		}
		return single(models.CreateCashDeposit(r.outputCur, r.date, r.outputAmt, r.externalID)), nil

	case "Withdrawal":
		if !r.outputCur.IsFiat() {
			return nil, fmt.Errorf("nexo parser: row %d: unsupported non-fiat withdrawal in %s", r.num, r.outputCur)
		}
		return single(models.CreateCashWithdrawal(r.outputCur, r.date, r.outputAmt, r.externalID)), nil

	case "Exchange":
		return p.parseExchange(r)

	case "Interest", "Fixed Term Interest":
		if r.outputCur.IsFiat() {
			return single(models.CreateInterest(r.outputCur, r.date, r.outputAmt, r.externalID)), nil
		}
		return single(models.CreateAssetInterest(r.date, cryptoSymbols(r.outputCur), r.outputAmt, r.externalID)), nil

	case "Cashback":
		if r.outputCur.IsFiat() {
			return single(models.CreateCashGift(r.outputCur, r.date, r.outputAmt, r.externalID)), nil
		}
		return single(models.CreateGift(r.date, cryptoSymbols(r.outputCur), r.outputAmt, r.externalID)), nil

	case "Referral Bonus":
		return p.parseReferralBonus(r)

	case "Locking Term Deposit", "Unlocking Term Deposit", "Deposit To Exchange", "Exchange To Withdraw":
		// Internal fund movements, nothing economically meaningful happened.
		return nil, nil
	}

	// An unlisted type is a hard failure: the vocabulary must be revisited
	// whenever Nexo adds transaction types, silently dropping rows risks
	// silent data loss.
	return nil, fmt.Errorf("nexo parser: row %d: unknown transaction type %q", r.num, r.typ)
}

func (p *Parser) parseExchange(r row) ([]models.PartialActivity, error) {
	inFiat, outFiat := r.inputCur.IsFiat(), r.outputCur.IsFiat()
	switch {
	case inFiat && !outFiat:
		// The ledger gives the fiat total and the received quantity; the
		// unit price is derived as input amount / output quantity.
		unitPrice := r.inputAmt.Abs().Div(r.outputAmt.Abs())
		return single(models.CreateBuy(r.inputCur, r.date, cryptoSymbols(r.outputCur), r.outputAmt, unitPrice, r.externalID)), nil
	case !inFiat && outFiat:
		// Mirror of the buy case: unit price = output amount / input quantity.
		unitPrice := r.outputAmt.Abs().Div(r.inputAmt.Abs())
		return single(models.CreateSell(r.outputCur, r.date, cryptoSymbols(r.inputCur), r.inputAmt, unitPrice, r.externalID)), nil
	case !inFiat && !outFiat:
		return single(models.CreateAssetConvert(r.date,
			cryptoSymbols(r.inputCur), r.inputAmt,
			cryptoSymbols(r.outputCur), r.outputAmt,
			r.externalID)), nil
	}
	return nil, fmt.Errorf("nexo parser: row %d: fiat-to-fiat exchange %s to %s is not supported", r.num, r.inputCur, r.outputCur)
}

// parseReferralBonus only emits once the bonus settles. Pending rows must
// not appear as activities; the matching approved row confirms them.
func (p *Parser) parseReferralBonus(r row) ([]models.PartialActivity, error) {
	details := strings.ToLower(r.details)
	switch {
	case strings.HasPrefix(details, "approved"):
		if r.outputCur.IsFiat() {
			return single(models.CreateCashGift(r.outputCur, r.date, r.outputAmt, r.externalID)), nil
		}
		return single(models.CreateGift(r.date, cryptoSymbols(r.outputCur), r.outputAmt, r.externalID)), nil
	case strings.HasPrefix(details, "pending"):
		return nil, nil
	}
	return nil, fmt.Errorf("nexo parser: row %d: unknown referral bonus state %q", r.num, r.details)
}

func cryptoSymbols(c models.Currency) []models.PartialSymbolIdentifier {
	return []models.PartialSymbolIdentifier{models.CreateCryptoIdentifier(string(c))}
}

func single(a models.PartialActivity) []models.PartialActivity {
	return []models.PartialActivity{a}
}
