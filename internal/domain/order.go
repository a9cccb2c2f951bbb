package domain

import (
	"math/big"
	"time"
)

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType indicates the time-in-force policy.
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good-Till-Cancelled
	OrderTypeFOK OrderType = "FOK" // Fill-Or-Kill
)

// OrderStatus tracks the order lifecycle as reported by the CLOB. State is
// authoritative on the market side; the scanner re-queries open orders each
// tick rather than tracking transitions locally.
type OrderStatus string

const (
	OrderStatusLive      OrderStatus = "live"
	OrderStatusMatched   OrderStatus = "matched"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusFailed    OrderStatus = "failed"
)

// Order represents a signed limit order for one bracket's Yes token.
// Prices and sizes are fixed-point at 6 decimals, matching both the USDC
// leg and the outcome-token leg on the CLOB.
type Order struct {
	ID          string
	TokenID     string
	Wallet      string
	Side        OrderSide
	Type        OrderType
	PriceTicks  int64    // price * 1e6
	SizeUnits   int64    // size  * 1e6
	MakerAmount *big.Int // USDC paid (buy), 6-decimal integer
	TakerAmount *big.Int // outcome tokens received (buy), 6-decimal integer
	Status      OrderStatus
	Signature   string // EIP-712 hex
	CreatedAt   time.Time
}

// Price returns the display price from fixed-point ticks.
func (o Order) Price() float64 {
	return float64(o.PriceTicks) / 1e6
}

// Size returns the display size from fixed-point units.
func (o Order) Size() float64 {
	return float64(o.SizeUnits) / 1e6
}

// SpendUSDC returns the USDC notional committed by a buy order.
func (o Order) SpendUSDC() float64 {
	if o.MakerAmount == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(o.MakerAmount), big.NewFloat(1e6)).Float64()
	return f
}

// OrderResult wraps the CLOB response after order submission.
type OrderResult struct {
	Success bool
	OrderID string
	Status  OrderStatus
	Message string
}
