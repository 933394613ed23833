// REST API CLIENT FOR HYPERLIQUID PERPETUALS
// RESTY ONLY, NO RETRY: every failure is terminal for the current delivery
package connectors

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/sha3"
)

const (
	mainnetBaseURL = "https://api.hyperliquid.xyz"
	testnetBaseURL = "https://api.hyperliquid-testnet.xyz"
)

// -----------------------------
// INFO STRUCTURES
// -----------------------------

// AssetMeta is per-symbol exchange metadata, fetched live per request.
type AssetMeta struct {
	Name        string `json:"name"`
	SzDecimals  int    `json:"szDecimals"`
	MaxLeverage int    `json:"maxLeverage"`
}

type Meta struct {
	Universe []AssetMeta `json:"universe"`
}

// OpenOrder is one resting order on the exchange book.
// Side is "B" for bid (buy) and "A" for ask (sell).
type OpenOrder struct {
	Coin       string `json:"coin"`
	Oid        int64  `json:"oid"`
	Side       string `json:"side"`
	LimitPx    string `json:"limitPx"`
	Sz         string `json:"sz"`
	ReduceOnly bool   `json:"reduceOnly"`
}

type positionLeverage struct {
	Type  string `json:"type"`
	Value int    `json:"value"`
}

type assetPosition struct {
	Position struct {
		Coin     string           `json:"coin"`
		Szi      string           `json:"szi"`
		EntryPx  string           `json:"entryPx"`
		Leverage positionLeverage `json:"leverage"`
	} `json:"position"`
}

type clearinghouseState struct {
	AssetPositions []assetPosition `json:"assetPositions"`
}

// Position is the account's current holding in one asset, read from the
// exchange clearinghouse state. The exchange, not the database, is the
// source of truth for actual holdings.
type Position struct {
	Symbol       string
	Size         decimal.Decimal
	IsLong       bool
	LeverageMode string
	Leverage     int
}

// -----------------------------
// ORDER WIRE STRUCTURES
// -----------------------------

type LimitOrderType struct {
	Tif string `json:"tif"`
}

type TriggerOrderType struct {
	IsMarket  bool   `json:"isMarket"`
	TriggerPx string `json:"triggerPx"`
	Tpsl      string `json:"tpsl"`
}

type OrderType struct {
	Limit   *LimitOrderType   `json:"limit,omitempty"`
	Trigger *TriggerOrderType `json:"trigger,omitempty"`
}

// OrderWire is one order in the exchange's wire format.
type OrderWire struct {
	Asset      int       `json:"a"`
	IsBuy      bool      `json:"b"`
	Price      string    `json:"p"`
	Size       string    `json:"s"`
	ReduceOnly bool      `json:"r"`
	Type       OrderType `json:"t"`
	Cloid      string    `json:"c,omitempty"`
}

type orderAction struct {
	Type     string      `json:"type"`
	Orders   []OrderWire `json:"orders"`
	Grouping string      `json:"grouping"`
}

type cancelWire struct {
	Asset int   `json:"a"`
	Oid   int64 `json:"o"`
}

type cancelAction struct {
	Type    string       `json:"type"`
	Cancels []cancelWire `json:"cancels"`
}

type modifyWire struct {
	Oid   int64     `json:"oid"`
	Order OrderWire `json:"order"`
}

type batchModifyAction struct {
	Type     string       `json:"type"`
	Modifies []modifyWire `json:"modifies"`
}

type updateLeverageAction struct {
	Type     string `json:"type"`
	Asset    int    `json:"asset"`
	IsCross  bool   `json:"isCross"`
	Leverage int    `json:"leverage"`
}

// orderStatus covers both response shapes the exchange uses for a placed
// order: resting on the book or immediately filled.
type orderStatus struct {
	Resting *struct {
		Oid int64 `json:"oid"`
	} `json:"resting,omitempty"`
	Filled *struct {
		Oid     int64  `json:"oid"`
		AvgPx   string `json:"avgPx"`
		TotalSz string `json:"totalSz"`
	} `json:"filled,omitempty"`
	Error string `json:"error,omitempty"`
}

type exchangeResponse struct {
	Status   string `json:"status"`
	Response struct {
		Type string `json:"type"`
		Data struct {
			Statuses []orderStatus `json:"statuses"`
		} `json:"data"`
	} `json:"response"`
}

// -----------------------------
// CLIENT
// -----------------------------

// Client is an authenticated Hyperliquid REST client. Info endpoints are
// unsigned; exchange endpoints carry a keyed action signature.
type Client struct {
	privateKey  string
	userAddress string
	http        *resty.Client
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = mainnetBaseURL
		if cfg.Testnet {
			baseURL = testnetBaseURL
		}
		logger.Warnf("No base URL provided, using default: %s", baseURL)
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		privateKey:  cfg.PrivateKey,
		userAddress: cfg.UserAddress,
		http:        httpClient,
	}
}

// UserAddress returns the account address the client trades for.
func (c *Client) UserAddress() string {
	return c.userAddress
}

func (c *Client) doInfo(ctx context.Context, body map[string]interface{}, out interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/info")
	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return json.Unmarshal(resp.Body(), out)
}

// signAction hashes the marshaled action together with the nonce
// (Keccak-256) and signs the digest with the account key.
func signAction(action []byte, nonce int64, privateKey string) string {
	nonceBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBytes, uint64(nonce))

	hash := sha3.NewLegacyKeccak256()
	hash.Write(action)
	hash.Write(nonceBytes)
	digest := hash.Sum(nil)

	mac := hmac.New(sha256.New, []byte(strings.TrimPrefix(privateKey, "0x")))
	mac.Write(digest)
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) doExchange(ctx context.Context, op string, action interface{}) (*exchangeResponse, error) {
	if c.privateKey == "" {
		return nil, &ExchangeError{Op: op, Reason: "private key not configured"}
	}

	actionJSON, err := json.Marshal(action)
	if err != nil {
		return nil, err
	}

	nonce := time.Now().UnixMilli()
	payload := map[string]interface{}{
		"action":    json.RawMessage(actionJSON),
		"nonce":     nonce,
		"signature": signAction(actionJSON, nonce, c.privateKey),
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/exchange")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, &ExchangeError{Op: op, Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), string(resp.Body()))}
	}

	var parsed exchangeResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, err
	}

	if parsed.Status != "ok" {
		logger.WithFields(map[string]interface{}{
			"op":   op,
			"code": GetErrorCode(parsed.Status),
		}).Error("Exchange rejected action")
		return nil, &ExchangeError{Op: op, Reason: parsed.Status}
	}

	return &parsed, nil
}

// -----------------------------
// INFO METHODS
// -----------------------------

// Meta returns the exchange asset universe.
func (c *Client) Meta(ctx context.Context) (*Meta, error) {
	var meta Meta
	if err := c.doInfo(ctx, map[string]interface{}{"type": "meta"}, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// AssetInfo resolves a symbol to its metadata and universe index. The index
// doubles as the asset id on the exchange wire.
func (c *Client) AssetInfo(ctx context.Context, symbol string) (*AssetMeta, int, error) {
	meta, err := c.Meta(ctx)
	if err != nil {
		return nil, 0, err
	}

	for i, asset := range meta.Universe {
		if asset.Name == symbol {
			return &meta.Universe[i], i, nil
		}
	}

	return nil, 0, &ExchangeError{Op: "AssetInfo", Reason: fmt.Sprintf("asset %s not found in metadata", symbol)}
}

// AllMids returns the current mid price per symbol.
func (c *Client) AllMids(ctx context.Context) (map[string]string, error) {
	var mids map[string]string
	if err := c.doInfo(ctx, map[string]interface{}{"type": "allMids"}, &mids); err != nil {
		return nil, err
	}
	return mids, nil
}

// MidPrice returns the current mid price for one symbol.
func (c *Client) MidPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	mids, err := c.AllMids(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	raw, ok := mids[symbol]
	if !ok || raw == "" {
		return decimal.Zero, fmt.Errorf("unable to fetch market price for %s", symbol)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil || price.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("invalid market price for %s: %q", symbol, raw)
	}

	return price, nil
}

// OpenOrders returns the account's resting orders.
func (c *Client) OpenOrders(ctx context.Context) ([]OpenOrder, error) {
	var orders []OpenOrder
	err := c.doInfo(ctx, map[string]interface{}{
		"type": "openOrders",
		"user": c.userAddress,
	}, &orders)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Position returns the account's current position in one symbol, or
// (nil, nil) when no position is open.
func (c *Client) Position(ctx context.Context, symbol string) (*Position, error) {
	var state clearinghouseState
	err := c.doInfo(ctx, map[string]interface{}{
		"type": "clearinghouseState",
		"user": c.userAddress,
	}, &state)
	if err != nil {
		return nil, err
	}

	for _, ap := range state.AssetPositions {
		if ap.Position.Coin != symbol {
			continue
		}

		szi, err := decimal.NewFromString(ap.Position.Szi)
		if err != nil {
			return nil, fmt.Errorf("invalid position size for %s: %q", symbol, ap.Position.Szi)
		}
		if szi.IsZero() {
			continue
		}

		return &Position{
			Symbol:       symbol,
			Size:         szi.Abs(),
			IsLong:       szi.Sign() > 0,
			LeverageMode: ap.Position.Leverage.Type,
			Leverage:     ap.Position.Leverage.Value,
		}, nil
	}

	return nil, nil
}

// -----------------------------
// TRADING METHODS
// -----------------------------

// NewCloid generates a client order id for outgoing orders.
func NewCloid() string {
	return "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// PlaceOrder submits one order and returns the exchange-assigned oid,
// reading both the resting and the filled response shapes.
func (c *Client) PlaceOrder(ctx context.Context, order OrderWire) (string, error) {
	if order.Cloid == "" {
		order.Cloid = NewCloid()
	}

	resp, err := c.doExchange(ctx, "PlaceOrder", orderAction{
		Type:     "order",
		Orders:   []OrderWire{order},
		Grouping: "na",
	})
	if err != nil {
		return "", err
	}

	statuses := resp.Response.Data.Statuses
	if len(statuses) == 0 {
		return "", ErrOrderIDMissing
	}

	status := statuses[0]
	switch {
	case status.Error != "":
		logger.WithFields(map[string]interface{}{
			"op":   "PlaceOrder",
			"code": GetErrorCode(status.Error),
		}).Error("Order rejected by exchange")
		return "", &ExchangeError{Op: "PlaceOrder", Reason: status.Error}
	case status.Resting != nil:
		return strconv.FormatInt(status.Resting.Oid, 10), nil
	case status.Filled != nil:
		return strconv.FormatInt(status.Filled.Oid, 10), nil
	default:
		return "", ErrOrderIDMissing
	}
}

// CancelOrders cancels the given oids for one asset.
func (c *Client) CancelOrders(ctx context.Context, asset int, oids []int64) error {
	if len(oids) == 0 {
		return nil
	}

	cancels := make([]cancelWire, 0, len(oids))
	for _, oid := range oids {
		cancels = append(cancels, cancelWire{Asset: asset, Oid: oid})
	}

	_, err := c.doExchange(ctx, "CancelOrders", cancelAction{
		Type:    "cancel",
		Cancels: cancels,
	})
	return err
}

// ModifyOrder replaces a resting order in a single batch-modify call.
func (c *Client) ModifyOrder(ctx context.Context, oid int64, order OrderWire) error {
	_, err := c.doExchange(ctx, "ModifyOrder", batchModifyAction{
		Type:     "batchModify",
		Modifies: []modifyWire{{Oid: oid, Order: order}},
	})
	return err
}

// UpdateLeverage switches the account's leverage configuration for one
// asset. This mutates exchange account state and is logged by callers.
func (c *Client) UpdateLeverage(ctx context.Context, asset int, isCross bool, leverage int) error {
	_, err := c.doExchange(ctx, "UpdateLeverage", updateLeverageAction{
		Type:     "updateLeverage",
		Asset:    asset,
		IsCross:  isCross,
		Leverage: leverage,
	})
	return err
}
