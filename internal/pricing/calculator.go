// Package pricing computes order totals, the subscription discount and
// cashback redemption. It performs no I/O.
package pricing

import (
	"fmt"
	"math"

	"coffee-on/internal/model"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places amounts are stored with.
const MoneyPlaces int32 = 2

var (
	// SubscriptionRate is the discount granted to accounts with an active subscription.
	SubscriptionRate = decimal.New(10, -2)

	// AccrualRate is the share of a paid order's net total credited as cashback.
	AccrualRate = decimal.New(10, -2)

	// MaxAmount bounds unit prices and order totals to what numeric(12,2) holds.
	MaxAmount = decimal.New(1, 10)
)

// MaxQuantity is the largest quantity a line item column holds.
const MaxQuantity = math.MaxInt32

// LineItem is one priced entry of an order.
type LineItem struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal returns quantity × unit price.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Breakdown is the result of pricing an order.
type Breakdown struct {
	Gross                decimal.Decimal
	SubscriptionDiscount decimal.Decimal
	CashbackDiscount     decimal.Decimal
	TotalDiscount        decimal.Decimal
	Net                  decimal.Decimal
	CashbackAvailable    decimal.Decimal
	CashbackRemaining    decimal.Decimal
}

// Validate checks a single line item.
func Validate(li LineItem) error {
	if li.ProductID <= 0 || li.Quantity <= 0 || int64(li.Quantity) > MaxQuantity {
		return model.ErrInvalidLineItem
	}
	if li.UnitPrice.IsNegative() || li.UnitPrice.GreaterThanOrEqual(MaxAmount) {
		return model.ErrInvalidLineItem
	}
	return nil
}

// Calculate prices the items. Amounts are kept exact; call Round before
// persisting or presenting the result.
func Calculate(items []LineItem, subscriptionEligible bool, cashbackAvailable decimal.Decimal) (Breakdown, error) {
	if len(items) == 0 {
		return Breakdown{}, model.ErrEmptyOrder
	}

	gross := decimal.Zero
	for i, item := range items {
		if err := Validate(item); err != nil {
			return Breakdown{}, fmt.Errorf("item %d: %w", i, err)
		}
		gross = gross.Add(item.Subtotal())
	}
	if gross.GreaterThanOrEqual(MaxAmount) {
		return Breakdown{}, fmt.Errorf("order total %s out of range: %w", gross, model.ErrInvalidLineItem)
	}

	if cashbackAvailable.IsNegative() {
		cashbackAvailable = decimal.Zero
	}

	subscription := decimal.Zero
	if subscriptionEligible {
		subscription = gross.Mul(SubscriptionRate)
	}

	payable := gross.Sub(subscription)
	cashback := decimal.Min(cashbackAvailable, payable)

	total := subscription.Add(cashback)

	return Breakdown{
		Gross:                gross,
		SubscriptionDiscount: subscription,
		CashbackDiscount:     cashback,
		TotalDiscount:        total,
		Net:                  gross.Sub(total),
		CashbackAvailable:    cashbackAvailable,
		CashbackRemaining:    cashbackAvailable.Sub(cashback),
	}, nil
}

// Round returns the breakdown rounded to the given number of places. The
// redeemed cashback is recomputed against the rounded payable amount, so a
// balance covering it always brings net to zero.
func (b Breakdown) Round(places int32) Breakdown {
	gross := b.Gross.Round(places)

	subscription := decimal.Min(b.SubscriptionDiscount.Round(places), gross)
	payable := gross.Sub(subscription)

	cashback := decimal.Min(b.CashbackAvailable.Truncate(places), payable)
	if cashback.IsNegative() {
		cashback = decimal.Zero
	}

	total := subscription.Add(cashback)

	return Breakdown{
		Gross:                gross,
		SubscriptionDiscount: subscription,
		CashbackDiscount:     cashback,
		TotalDiscount:        total,
		Net:                  gross.Sub(total),
		CashbackAvailable:    b.CashbackAvailable,
		CashbackRemaining:    b.CashbackAvailable.Sub(cashback),
	}
}

// Accrual returns the cashback earned when an order with the given net total is paid.
func Accrual(net decimal.Decimal) decimal.Decimal {
	if net.IsNegative() {
		return decimal.Zero
	}
	return net.Mul(AccrualRate).Round(MoneyPlaces)
}

// Observation appends the human-readable discount breakdown to a customer note.
func Observation(note string, b Breakdown) string {
	return fmt.Sprintf("%s | Desconto assinatura: R$ %s, Cashback: R$ %s",
		note,
		b.SubscriptionDiscount.StringFixed(MoneyPlaces),
		b.CashbackDiscount.StringFixed(MoneyPlaces),
	)
}
