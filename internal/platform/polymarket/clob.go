package polymarket

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"wxarb/internal/crypto"
	"wxarb/internal/domain"
)

// zeroAddress is the open taker: anyone may fill the order.
const zeroAddress = "0x0000000000000000000000000000000000000000"

// ClobClient is the authenticated REST client for the Polymarket CLOB API.
// It derives API credentials once per signing identity (L1), signs every
// subsequent request with the derived secret (L2), and signs each order
// independently against the exchange domain.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
	signer     *crypto.Signer

	// credMu guards the per-address credential cache. Credentials are
	// derived at most once per identity for the process lifetime.
	credMu sync.Mutex
	creds  map[string]*crypto.APICreds
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
// signer is the EIP-712 signer for the trading identity.
func NewClobClient(baseURL string, signer *crypto.Signer) *ClobClient {
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		signer: signer,
		creds:  make(map[string]*crypto.APICreds),
	}
}

// BestAsk returns the lowest ask price (0..1) for the given outcome token.
// The pricing endpoint is public; no authentication is attached.
func (c *ClobClient) BestAsk(ctx context.Context, tokenID string) (float64, error) {
	path := "/price?token_id=" + tokenID + "&side=sell"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: create price request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: get price: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: read price response: %w", err)
	}
	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return 0, fmt.Errorf("polymarket/clob: get price: %w", err)
	}

	var p apiPrice
	if err := json.Unmarshal(body, &p); err != nil {
		return 0, fmt.Errorf("polymarket/clob: decode price: %w", err)
	}
	ask, err := strconv.ParseFloat(p.Price, 64)
	if err != nil || ask <= 0 {
		return 0, fmt.Errorf("polymarket/clob: %w: price %q for token %s", domain.ErrProtocol, p.Price, tokenID)
	}

	return ask, nil
}

// PlaceBuyOrder builds, signs, and submits a GTC buy order for spendUSDC
// worth of the given outcome token at the given limit price. Both legs are
// fixed-point at 6 decimals: makerAmount is the USDC spent, takerAmount the
// outcome tokens received (spend / price).
func (c *ClobClient) PlaceBuyOrder(ctx context.Context, tokenID string, price, spendUSDC float64) (domain.Order, error) {
	if price <= 0 || price >= 1 {
		return domain.Order{}, fmt.Errorf("polymarket/clob: %w: price %v out of (0,1)", domain.ErrInvalidOrder, price)
	}
	if spendUSDC <= 0 {
		return domain.Order{}, fmt.Errorf("polymarket/clob: %w: spend %v", domain.ErrInvalidOrder, spendUSDC)
	}

	makerAmount := big.NewInt(int64(math.Round(spendUSDC * 1e6)))
	takerAmount := big.NewInt(int64(math.Round(spendUSDC / price * 1e6)))

	salt, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 63))
	if err != nil {
		return domain.Order{}, fmt.Errorf("polymarket/clob: generate salt: %w", err)
	}

	address := c.signer.Address().Hex()
	payload := crypto.OrderPayload{
		Salt:          salt.String(),
		Maker:         address,
		Signer:        address,
		Taker:         zeroAddress,
		TokenID:       tokenID,
		MakerAmount:   makerAmount.String(),
		TakerAmount:   takerAmount.String(),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          0, // BUY
		SignatureType: 0, // EOA
	}

	sig, err := c.signer.SignOrder(payload)
	if err != nil {
		return domain.Order{}, fmt.Errorf("polymarket/clob: %w: %v", domain.ErrSigningFailed, err)
	}

	creds, err := c.ensureCreds(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	body := map[string]any{
		"order": map[string]any{
			"salt":          salt.Int64(),
			"maker":         payload.Maker,
			"signer":        payload.Signer,
			"taker":         payload.Taker,
			"tokenID":       payload.TokenID,
			"makerAmount":   payload.MakerAmount,
			"takerAmount":   payload.TakerAmount,
			"expiration":    payload.Expiration,
			"nonce":         payload.Nonce,
			"feeRateBps":    payload.FeeRateBps,
			"side":          string(domain.OrderSideBuy),
			"signatureType": payload.SignatureType,
			"signature":     sig,
		},
		"owner":     creds.Key,
		"orderType": string(domain.OrderTypeGTC),
	}

	respBody, err := c.doSignedRequest(ctx, http.MethodPost, "/order", body)
	if err != nil {
		return domain.Order{}, fmt.Errorf("polymarket/clob: post order: %w", err)
	}

	var result APIOrderResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return domain.Order{}, fmt.Errorf("polymarket/clob: decode order result: %w", err)
	}
	// A 2xx body can still carry an application-level rejection.
	if !result.Success || result.ErrorMsg != "" {
		return domain.Order{}, fmt.Errorf("polymarket/clob: %w: %s", domain.ErrOrderRejected, result.ErrorMsg)
	}
	if result.OrderID == "" {
		return domain.Order{}, fmt.Errorf("polymarket/clob: %w: success response without order id", domain.ErrProtocol)
	}

	status := domain.OrderStatus(strings.ToLower(result.Status))
	if status == "" {
		status = domain.OrderStatusLive
	}

	return domain.Order{
		ID:          result.OrderID,
		TokenID:     tokenID,
		Wallet:      address,
		Side:        domain.OrderSideBuy,
		Type:        domain.OrderTypeGTC,
		PriceTicks:  int64(math.Round(price * 1e6)),
		SizeUnits:   takerAmount.Int64(),
		MakerAmount: makerAmount,
		TakerAmount: takerAmount,
		Status:      status,
		Signature:   sig,
		CreatedAt:   time.Now(),
	}, nil
}

// OpenOrders returns all open orders for the trading identity.
func (c *ClobClient) OpenOrders(ctx context.Context) ([]domain.Order, error) {
	if _, err := c.ensureCreds(ctx); err != nil {
		return nil, err
	}

	respBody, err := c.doSignedRequest(ctx, http.MethodGet, "/orders", nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: get open orders: %w", err)
	}

	var apiOrders []APIOrder
	if err := json.Unmarshal(respBody, &apiOrders); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(apiOrders))
	for i := range apiOrders {
		orders = append(orders, apiOrders[i].ToDomainOrder())
	}

	return orders, nil
}

// CancelOrder cancels a single order by its ID.
func (c *ClobClient) CancelOrder(ctx context.Context, orderID string) error {
	if _, err := c.ensureCreds(ctx); err != nil {
		return err
	}

	body := map[string]any{"orderID": orderID}

	respBody, err := c.doSignedRequest(ctx, http.MethodDelete, "/order", body)
	if err != nil {
		return fmt.Errorf("polymarket/clob: cancel order %s: %w", orderID, err)
	}

	var result struct {
		Success  bool   `json:"success"`
		ErrorMsg string `json:"errorMsg"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("polymarket/clob: decode cancel response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("polymarket/clob: cancel failed: %s", result.ErrorMsg)
	}

	return nil
}

// CollateralBalance returns the spendable USDC balance (display units) for
// the trading identity, from the CLOB's balance-allowance endpoint.
func (c *ClobClient) CollateralBalance(ctx context.Context) (float64, error) {
	if _, err := c.ensureCreds(ctx); err != nil {
		return 0, err
	}

	path := "/balance-allowance?asset_type=COLLATERAL&signature_type=0"
	respBody, err := c.doSignedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: get balance: %w", err)
	}

	var bal apiBalanceAllowance
	if err := json.Unmarshal(respBody, &bal); err != nil {
		return 0, fmt.Errorf("polymarket/clob: decode balance: %w", err)
	}
	// The endpoint reports a 6-decimal fixed-point integer string.
	raw, err := strconv.ParseFloat(bal.Balance, 64)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: %w: balance %q", domain.ErrProtocol, bal.Balance)
	}

	return raw / 1e6, nil
}

// --------------------------------------------------------------------------
// Authentication
// --------------------------------------------------------------------------

// ensureCreds returns cached API credentials for the signer's address,
// performing the one-time L1 derive-api-key handshake on first use. The L1
// request is a GET carrying the address, the ClobAuth signature, the signed
// timestamp, and nonce "0".
func (c *ClobClient) ensureCreds(ctx context.Context) (*crypto.APICreds, error) {
	address := c.signer.Address().Hex()

	c.credMu.Lock()
	defer c.credMu.Unlock()

	if creds, ok := c.creds[address]; ok {
		return creds, nil
	}

	timestamp := time.Now().Unix()
	const nonce = int64(0)

	sig, err := c.signer.SignAuthMessage(timestamp, nonce)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: sign auth message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/derive-api-key", nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: create auth request: %w", err)
	}
	req.Header.Set("POLY_ADDRESS", address)
	req.Header.Set("POLY_SIGNATURE", sig)
	req.Header.Set("POLY_TIMESTAMP", strconv.FormatInt(timestamp, 10))
	req.Header.Set("POLY_NONCE", strconv.FormatInt(nonce, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: auth request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: read auth response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("polymarket/clob: auth failed (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var derived apiDerivedCreds
	if err := json.Unmarshal(respBody, &derived); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode auth response: %w", err)
	}
	if derived.APIKey == "" || derived.Secret == "" || derived.Passphrase == "" {
		return nil, fmt.Errorf("polymarket/clob: %w: incomplete credentials", domain.ErrProtocol)
	}

	creds := &crypto.APICreds{
		Key:        derived.APIKey,
		Secret:     derived.Secret,
		Passphrase: derived.Passphrase,
	}
	c.creds[address] = creds

	return creds, nil
}

// doSignedRequest builds, HMAC-signs (L2), sends, and reads an HTTP request
// against the CLOB API. It returns the raw response body. ensureCreds must
// have succeeded before this is called.
func (c *ClobClient) doSignedRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	var bodyStr string

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(jsonBody)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	address := c.signer.Address().Hex()
	c.credMu.Lock()
	creds := c.creds[address]
	c.credMu.Unlock()
	if creds == nil {
		return nil, fmt.Errorf("%w: no API credentials derived", domain.ErrUnauthorized)
	}

	for k, v := range creds.L2Headers(address, method, path, bodyStr) {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

// parseFixed6 parses a decimal string into a 6-decimal fixed-point integer.
func parseFixed6(s string) (int64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(f * 1e6)), true
}
