package polymarket

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wxarb/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether a flag is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIEvent represents an event as returned by the Gamma API. A daily
// high-temperature event groups one market per bracket.
type APIEvent struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Slug    string      `json:"slug"`
	Closed  bool        `json:"closed"`
	Markets []APIMarket `json:"markets"`
}

// APIMarket represents a single bracket market within a Gamma event.
type APIMarket struct {
	ID              string   `json:"id"`
	Question        string   `json:"question"`
	GroupItemTitle  string   `json:"groupItemTitle"`
	ConditionID     string   `json:"conditionId"`
	ClobTokenIDs    string   `json:"clobTokenIds"` // JSON-encoded array, Yes token first
	AcceptingOrders flexBool `json:"acceptingOrders"`
	Closed          bool     `json:"closed"`
	EndDate         string   `json:"endDate"`
}

// ToBracket converts a Gamma market to a domain.Bracket. The bracket label
// is the group item title (e.g. "40-41°F") with the question as fallback.
func (m *APIMarket) ToBracket() (domain.Bracket, error) {
	label := m.GroupItemTitle
	if label == "" {
		label = m.Question
	}

	lo, hi, err := domain.ParseBracketLabel(label)
	if err != nil {
		return domain.Bracket{}, err
	}

	var tokenIDs []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &tokenIDs); err != nil || len(tokenIDs) == 0 {
		return domain.Bracket{}, fmt.Errorf("polymarket/gamma: %w: market %s has no CLOB tokens", domain.ErrProtocol, m.ID)
	}

	b := domain.Bracket{
		Label:           label,
		LowerF:          lo,
		UpperF:          hi,
		YesTokenID:      tokenIDs[0],
		ConditionID:     m.ConditionID,
		AcceptingOrders: bool(m.AcceptingOrders) && !m.Closed,
	}
	if t, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
		b.CloseTime = t
	}
	return b, nil
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIOrder represents an order as returned by the CLOB API.
type APIOrder struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	AssetID      string `json:"asset_id"`
	Side         string `json:"side"`
	Price        string `json:"price"`
	OriginalSize string `json:"original_size"`
	MakerAddress string `json:"maker_address"`
	CreatedAt    int64  `json:"created_at"`
}

// ToDomainOrder converts an APIOrder to a domain.Order.
func (o *APIOrder) ToDomainOrder() domain.Order {
	ord := domain.Order{
		ID:      o.ID,
		TokenID: o.AssetID,
		Wallet:  o.MakerAddress,
		Side:    domain.OrderSide(o.Side),
		Status:  domain.OrderStatus(strings.ToLower(o.Status)),
	}
	if o.CreatedAt > 0 {
		ord.CreatedAt = time.Unix(o.CreatedAt, 0)
	}
	if ticks, ok := parseFixed6(o.Price); ok {
		ord.PriceTicks = ticks
	}
	if units, ok := parseFixed6(o.OriginalSize); ok {
		ord.SizeUnits = units
	}
	return ord
}

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg,omitempty"`
	OrderID  string `json:"orderID,omitempty"`
	Status   string `json:"status,omitempty"`
}

// apiPrice is the response from the order-book pricing endpoint.
type apiPrice struct {
	Price string `json:"price"`
}

// apiBalanceAllowance is the response from the balance-allowance endpoint.
// Amounts are 6-decimal fixed-point integers encoded as strings.
type apiBalanceAllowance struct {
	Balance string `json:"balance"`
}

// apiDerivedCreds is the response from the derive-api-key handshake.
type apiDerivedCreds struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}
