package ghostfolio

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// Wire types for the Ghostfolio HTTP contract. These entities are owned by
// the remote service; the client reads and writes them but parsers never
// author them.

type Asset struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	DataSource    string `json:"dataSource"`
	Currency      string `json:"currency"`
	AssetClass    string `json:"assetClass"`
	AssetSubClass string `json:"assetSubClass"`
}

type symbolLookupResponse struct {
	Items []Asset `json:"items"`
}

type SymbolProfile struct {
	Symbol        string `json:"symbol"`
	DataSource    string `json:"dataSource"`
	Currency      string `json:"currency"`
	Name          string `json:"name"`
	AssetClass    string `json:"assetClass"`
	AssetSubClass string `json:"assetSubClass"`
	Comment       string `json:"comment,omitempty"`
}

type MarketDataPoint struct {
	Date        string          `json:"date"`
	MarketPrice decimal.Decimal `json:"marketPrice"`
}

// MarketDataList is one symbol's profile plus its price history.
type MarketDataList struct {
	AssetProfile SymbolProfile     `json:"assetProfile"`
	MarketData   []MarketDataPoint `json:"marketData"`
}

// MarketDataSummary is one entry of the catalog listing.
type MarketDataSummary struct {
	Symbol          string `json:"symbol"`
	DataSource      string `json:"dataSource"`
	ActivitiesCount int    `json:"activitiesCount"`
}

type marketDataResponse struct {
	MarketData []MarketDataSummary `json:"marketData"`
}

type accountDTO struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

type accountsResponse struct {
	Accounts []accountDTO `json:"accounts"`
}

type Activity struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"accountId"`
	SymbolProfile SymbolProfile   `json:"SymbolProfile"`
	Comment       string          `json:"comment"`
	Date          time.Time       `json:"date"`
	Fee           decimal.Decimal `json:"fee"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Type          string          `json:"type"`
}

type activitiesResponse struct {
	Activities []Activity `json:"activities"`
}

type exchangeRateResponse struct {
	MarketPrice decimal.Decimal `json:"marketPrice"`
}

// Synced activities carry their source external id inside the comment, the
// remote service has no dedicated field for it.
var transactionReferencePattern = regexp.MustCompile(`Transaction Reference: \[(.*?)\]`)

// ExternalID extracts the broker-assigned id embedded in the activity
// comment, or "" when the activity was not created by this tool.
func (a Activity) ExternalID() string {
	match := transactionReferencePattern.FindStringSubmatch(a.Comment)
	if match == nil {
		return ""
	}
	return match[1]
}

// TransactionReferenceComment renders the comment under which an external
// id is stored on a synced activity.
func TransactionReferenceComment(externalID string) string {
	return "Transaction Reference: [" + externalID + "]"
}
