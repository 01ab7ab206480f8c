package ghostfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/mbks/GhostfolioSidekick/src/logger"
	"github.com/mbks/GhostfolioSidekick/src/models"
)

const dateLayout = "2006-01-02"

// SelectAssetFunc picks one asset out of several lookup candidates. Ticker
// collisions across exchanges are common and the correct choice is
// caller-dependent, so disambiguation is injected; nil means first match.
type SelectAssetFunc func([]Asset) *Asset

// Client exposes the idempotent, high-level Ghostfolio operations on top of
// the raw RestCall primitives.
type Client struct {
	rest *RestCall
}

func NewClient(rest *RestCall) *Client {
	return &Client{rest: rest}
}

// FindSymbolByIdentifier resolves a partial symbol identifier against the
// remote symbol catalog. A nil result with a nil error means "not found";
// callers decide whether that is a skip or a failure.
func (c *Client) FindSymbolByIdentifier(ctx context.Context, identifier models.PartialSymbolIdentifier, selector SelectAssetFunc) (*Asset, error) {
	if identifier.Identifier == "" {
		return nil, nil
	}

	body, err := c.rest.DoRestGet(ctx, "api/v1/symbol/lookup?query="+url.QueryEscape(identifier.Identifier))
	if err != nil {
		return nil, err
	}

	var lookup symbolLookupResponse
	if err := json.Unmarshal(body, &lookup); err != nil {
		return nil, fmt.Errorf("failed to decode symbol lookup response: %w", err)
	}

	candidates := lookup.Items
	if identifier.Kind == models.SymbolKindCrypto {
		candidates = filterAssets(candidates, func(a Asset) bool {
			return a.AssetSubClass == "CRYPTOCURRENCY"
		})
	}
	if len(candidates) == 0 {
		logger.L.Debug("No asset found for identifier", "identifier", identifier.Identifier)
		return nil, nil
	}

	if selector == nil {
		return &candidates[0], nil
	}
	return selector(candidates), nil
}

// GetAccountByName returns the account with the given name, or nil when the
// remote has none. Name collisions are the caller's responsibility.
func (c *Client) GetAccountByName(ctx context.Context, name string) (*models.Account, error) {
	body, err := c.rest.DoRestGet(ctx, "api/v1/account")
	if err != nil {
		return nil, err
	}

	var accounts accountsResponse
	if err := json.Unmarshal(body, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode accounts response: %w", err)
	}

	for _, dto := range accounts.Accounts {
		if dto.Name == name {
			return &models.Account{
				ID:       dto.ID,
				Name:     dto.Name,
				Currency: models.Currency(dto.Currency),
				Balance:  models.NewMoney(dto.Balance, models.Currency(dto.Currency)),
			}, nil
		}
	}
	return nil, nil
}

// UpdateAccount replaces the remote account state, keyed by id.
func (c *Client) UpdateAccount(ctx context.Context, account models.Account) error {
	payload := accountDTO{
		ID:       account.ID,
		Name:     account.Name,
		Currency: string(account.Currency),
		Balance:  account.Balance.Amount,
	}
	_, err := c.rest.DoRestPut(ctx, "api/v1/account/"+account.ID, payload)
	return err
}

// GetAllMarketData lists the remote catalog of securities.
func (c *Client) GetAllMarketData(ctx context.Context) ([]MarketDataSummary, error) {
	body, err := c.rest.DoRestGet(ctx, "api/v1/admin/market-data")
	if err != nil {
		return nil, err
	}

	var response marketDataResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode market data response: %w", err)
	}
	return response.MarketData, nil
}

// GetMarketData returns one symbol's profile and price history.
func (c *Client) GetMarketData(ctx context.Context, symbol, dataSource string) (*MarketDataList, error) {
	body, err := c.rest.DoRestGet(ctx, "api/v1/admin/market-data/"+dataSource+"/"+symbol)
	if err != nil {
		return nil, err
	}

	var list MarketDataList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode market data for %s: %w", symbol, err)
	}
	return &list, nil
}

// UpdateMarketData writes profile fields of an existing symbol.
func (c *Client) UpdateMarketData(ctx context.Context, profile SymbolProfile) error {
	path := "api/v1/admin/profile-data/" + profile.DataSource + "/" + profile.Symbol
	_, err := c.rest.DoRestPatch(ctx, path, profile)
	return err
}

// DeleteSymbol removes a symbol from the remote catalog.
func (c *Client) DeleteSymbol(ctx context.Context, profile SymbolProfile) error {
	return c.rest.DoRestDelete(ctx, "api/v1/admin/profile-data/"+profile.DataSource+"/"+profile.Symbol)
}

// CreateManualSymbol registers a security the remote data providers cannot
// resolve on their own.
func (c *Client) CreateManualSymbol(ctx context.Context, asset Asset) error {
	_, err := c.rest.DoRestPost(ctx, "api/v1/admin/profile-data/MANUAL/"+asset.Symbol, asset)
	return err
}

// SetMarketPrice records a manually-entered price point for a symbol.
func (c *Client) SetMarketPrice(ctx context.Context, profile SymbolProfile, price models.Money, date time.Time) error {
	path := fmt.Sprintf("api/v1/admin/market-data/%s/%s/%s",
		profile.DataSource, profile.Symbol, date.UTC().Format(dateLayout))
	_, err := c.rest.DoRestPut(ctx, path, map[string]any{"marketPrice": price.Amount})
	return err
}

// GetAllActivities reads every previously synced activity; the
// reconciliation step diffs these against freshly parsed partial
// activities by external id.
func (c *Client) GetAllActivities(ctx context.Context) ([]Activity, error) {
	body, err := c.rest.DoRestGet(ctx, "api/v1/order")
	if err != nil {
		return nil, err
	}

	var response activitiesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode activities response: %w", err)
	}
	return response.Activities, nil
}

// GetConvertedPrice converts money into the target currency using the
// remote service's FX data at the given date.
func (c *Client) GetConvertedPrice(ctx context.Context, money models.Money, targetCurrency models.Currency, date time.Time) (models.Money, error) {
	if money.Currency == targetCurrency || money.Amount.IsZero() {
		return models.NewMoney(money.Amount, targetCurrency), nil
	}

	path := fmt.Sprintf("api/v1/exchange-rate/%s-%s/%s",
		money.Currency, targetCurrency, date.UTC().Format(dateLayout))
	body, err := c.rest.DoRestGet(ctx, path)
	if err != nil {
		return models.Money{}, err
	}

	var response exchangeRateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return models.Money{}, fmt.Errorf("failed to decode exchange rate response: %w", err)
	}
	return models.NewMoney(money.Amount.Mul(response.MarketPrice), targetCurrency), nil
}

// GetMarketPrice returns the known price of an asset at a date, from the
// symbol's stored market data.
func (c *Client) GetMarketPrice(ctx context.Context, asset Asset, date time.Time) (models.Money, error) {
	list, err := c.GetMarketData(ctx, asset.Symbol, asset.DataSource)
	if err != nil {
		return models.Money{}, err
	}

	day := date.UTC().Format(dateLayout)
	for _, point := range list.MarketData {
		if len(point.Date) >= len(day) && point.Date[:len(day)] == day {
			return models.NewMoney(point.MarketPrice, models.Currency(asset.Currency)), nil
		}
	}
	return models.Money{}, fmt.Errorf("no market price for %s on %s", asset.Symbol, day)
}

func filterAssets(assets []Asset, keep func(Asset) bool) []Asset {
	var out []Asset
	for _, a := range assets {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
