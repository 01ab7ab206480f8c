package ghostfolio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/mbks/GhostfolioSidekick/src/models"
)

// newClientServer serves canned JSON bodies keyed by request path and records
// every non-auth request it sees.
func newClientServer(t *testing.T, responses map[string]string) (*Client, *[]*http.Request) {
	t.Helper()
	var seen []*http.Request
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/anonymous/secret-access-token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"authToken": "bearer-token"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r)
		body, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	restCall := NewRestCall(NewMemoryCache(), server.URL, "secret-access-token")
	restCall.retryPause = time.Millisecond
	restCall.limiter = rate.NewLimiter(rate.Inf, 0)
	return NewClient(restCall), &seen
}

func TestFindSymbolByIdentifier_DefaultsToFirstMatch(t *testing.T) {
	client, _ := newClientServer(t, map[string]string{
		"/api/v1/symbol/lookup": `{"items":[
			{"symbol":"AAPL","name":"Apple Inc","dataSource":"YAHOO","currency":"USD","assetSubClass":"STOCK"},
			{"symbol":"AAPL.DE","name":"Apple Inc","dataSource":"YAHOO","currency":"EUR","assetSubClass":"STOCK"}]}`,
	})

	asset, err := client.FindSymbolByIdentifier(context.Background(),
		models.CreateGenericIdentifier("AAPL", ""), nil)

	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "AAPL", asset.Symbol)
}

func TestFindSymbolByIdentifier_CustomSelector(t *testing.T) {
	client, _ := newClientServer(t, map[string]string{
		"/api/v1/symbol/lookup": `{"items":[
			{"symbol":"AAPL","currency":"USD","assetSubClass":"STOCK"},
			{"symbol":"AAPL.DE","currency":"EUR","assetSubClass":"STOCK"}]}`,
	})

	asset, err := client.FindSymbolByIdentifier(context.Background(),
		models.CreateGenericIdentifier("AAPL", ""),
		func(candidates []Asset) *Asset {
			for i := range candidates {
				if candidates[i].Currency == "EUR" {
					return &candidates[i]
				}
			}
			return nil
		})

	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "AAPL.DE", asset.Symbol)
}

func TestFindSymbolByIdentifier_CryptoFiltersNonCrypto(t *testing.T) {
	client, _ := newClientServer(t, map[string]string{
		"/api/v1/symbol/lookup": `{"items":[
			{"symbol":"BTC ETF","currency":"USD","assetSubClass":"ETF"},
			{"symbol":"BTC-USD","currency":"USD","assetSubClass":"CRYPTOCURRENCY"}]}`,
	})

	asset, err := client.FindSymbolByIdentifier(context.Background(),
		models.CreateCryptoIdentifier("BTC"), nil)

	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "BTC-USD", asset.Symbol)
}

func TestFindSymbolByIdentifier_NotFoundIsNotAnError(t *testing.T) {
	client, _ := newClientServer(t, map[string]string{
		"/api/v1/symbol/lookup": `{"items":[]}`,
	})

	asset, err := client.FindSymbolByIdentifier(context.Background(),
		models.CreateGenericIdentifier("ZZZZZZ", ""), nil)

	require.NoError(t, err)
	assert.Nil(t, asset)
}

func TestGetAccountByName(t *testing.T) {
	client, _ := newClientServer(t, map[string]string{
		"/api/v1/account": `{"accounts":[
			{"id":"acc-1","name":"Trading212","currency":"EUR","balance":123.45},
			{"id":"acc-2","name":"Crypto","currency":"USD","balance":0}]}`,
	})

	account, err := client.GetAccountByName(context.Background(), "Trading212")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, "acc-1", account.ID)
	assert.Equal(t, models.EUR, account.Currency)
	assert.True(t, account.Balance.Amount.Equal(decimal.RequireFromString("123.45")))

	missing, err := client.GetAccountByName(context.Background(), "Degiro")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateAccount_PutsToAccountPath(t *testing.T) {
	client, seen := newClientServer(t, map[string]string{
		"/api/v1/account/acc-1": `{}`,
	})

	err := client.UpdateAccount(context.Background(), models.Account{
		ID:       "acc-1",
		Name:     "Trading212",
		Currency: models.EUR,
		Balance:  models.NewMoney(decimal.NewFromInt(500), models.EUR),
	})

	require.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.Equal(t, http.MethodPut, (*seen)[0].Method)
}

func TestGetAllActivities_ExternalIDFromComment(t *testing.T) {
	client, _ := newClientServer(t, map[string]string{
		"/api/v1/order": `{"activities":[
			{"id":"1","comment":"Transaction Reference: [NXTM6EtqQukSs]","type":"BUY","quantity":150,"unitPrice":0.92647004},
			{"id":"2","comment":"manually entered","type":"SELL"}]}`,
	})

	activities, err := client.GetAllActivities(context.Background())

	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, "NXTM6EtqQukSs", activities[0].ExternalID())
	assert.Empty(t, activities[1].ExternalID())
	assert.True(t, activities[0].Quantity.Equal(decimal.NewFromInt(150)))
}

func TestGetConvertedPrice(t *testing.T) {
	client, seen := newClientServer(t, map[string]string{
		"/api/v1/exchange-rate/USD-EUR/2023-08-07": `{"marketPrice":0.9}`,
	})

	converted, err := client.GetConvertedPrice(context.Background(),
		models.NewMoney(decimal.NewFromInt(100), models.USD), models.EUR,
		time.Date(2023, 8, 7, 19, 56, 1, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, models.EUR, converted.Currency)
	assert.True(t, converted.Amount.Equal(decimal.NewFromInt(90)))
	require.Len(t, *seen, 1)
}

func TestGetConvertedPrice_SameCurrencySkipsRemote(t *testing.T) {
	client, seen := newClientServer(t, nil)

	converted, err := client.GetConvertedPrice(context.Background(),
		models.NewMoney(decimal.NewFromInt(100), models.EUR), models.EUR, time.Now())

	require.NoError(t, err)
	assert.True(t, converted.Amount.Equal(decimal.NewFromInt(100)))
	assert.Empty(t, *seen)
}

func TestGetMarketPrice(t *testing.T) {
	client, _ := newClientServer(t, map[string]string{
		"/api/v1/admin/market-data/COINGECKO/bitcoin": `{
			"assetProfile":{"symbol":"bitcoin","dataSource":"COINGECKO","currency":"USD"},
			"marketData":[
				{"date":"2023-10-07T00:00:00.000Z","marketPrice":27950.12},
				{"date":"2023-10-08T00:00:00.000Z","marketPrice":27973.50}]}`,
	})
	asset := Asset{Symbol: "bitcoin", DataSource: "COINGECKO", Currency: "USD"}

	price, err := client.GetMarketPrice(context.Background(), asset,
		time.Date(2023, 10, 8, 19, 54, 20, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, models.USD, price.Currency)
	assert.True(t, price.Amount.Equal(decimal.RequireFromString("27973.50")))

	_, err = client.GetMarketPrice(context.Background(), asset,
		time.Date(2023, 10, 9, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no market price")
}

func TestSetMarketPrice_PutsDatedPath(t *testing.T) {
	client, seen := newClientServer(t, map[string]string{
		"/api/v1/admin/market-data/MANUAL/MYFUND/2023-12-31": `{}`,
	})
	profile := SymbolProfile{Symbol: "MYFUND", DataSource: "MANUAL"}

	err := client.SetMarketPrice(context.Background(), profile,
		models.NewMoney(decimal.RequireFromString("10.55"), models.EUR),
		time.Date(2023, 12, 31, 15, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.Equal(t, http.MethodPut, (*seen)[0].Method)
}

func TestTransactionReferenceComment_RoundTrips(t *testing.T) {
	comment := TransactionReferenceComment("EOF261514154")

	assert.Equal(t, "Transaction Reference: [EOF261514154]", comment)
	assert.Equal(t, "EOF261514154", Activity{Comment: comment}.ExternalID())
}
