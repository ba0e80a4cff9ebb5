// Package transaction decides whether a purchase goes through and how much
// money is handed back. It never changes the stock.
package transaction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
)

var (
	ErrUnknownProduct   = errors.New("unknown product")
	ErrNoStock          = errors.New("no stock remaining")
	ErrMalformedPayment = errors.New("malformed payment")
)

// Status is the verdict of an attempt.
type Status int

const (
	Rejected Status = iota
	Accepted
)

func (s Status) String() string {
	if s == Accepted {
		return "accepted"
	}
	return "rejected"
}

// Reason explains a rejection.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonNoStock           Reason = "no stock remaining"
	ReasonInsufficientFunds Reason = "insufficient funds"
)

// Outcome is the result of Attempt. Change is set when accepted, Refund when
// rejected for insufficient funds.
type Outcome struct {
	ID        string
	Sequence  uint64
	ProductID string
	Price     decimal.Decimal
	Payment   decimal.Decimal
	Status    Status
	Reason    Reason
	Change    decimal.Decimal
	Refund    decimal.Decimal
}

// Accepted reports whether the product should be dispensed.
func (o Outcome) Accepted() bool { return o.Status == Accepted }

// Stock is the read side of the ledger.
type Stock interface {
	Get(id string) (model.Product, bool)
}

// Processor evaluates purchases against a stock.
type Processor struct {
	stock Stock
	seq   Sequencer
}

func New(stock Stock) *Processor {
	return &Processor{stock: stock}
}

// Quote returns the product if at least one unit can be sold.
func (p *Processor) Quote(id string) (model.Product, error) {
	prod, ok := p.stock.Get(id)
	if !ok {
		return model.Product{}, fmt.Errorf("quote %q: %w", id, ErrUnknownProduct)
	}
	if !prod.Available() {
		return prod, fmt.Errorf("quote %q: %w", id, ErrNoStock)
	}
	return prod, nil
}

// Attempt evaluates a purchase of one unit with the tendered payment. The
// caller decrements the stock when the outcome is accepted.
func (p *Processor) Attempt(id string, payment decimal.Decimal) (Outcome, error) {
	if payment.IsNegative() {
		return Outcome{}, fmt.Errorf("attempt %q: %w", id, ErrMalformedPayment)
	}
	prod, ok := p.stock.Get(id)
	if !ok {
		return Outcome{}, fmt.Errorf("attempt %q: %w", id, ErrUnknownProduct)
	}
	out := Outcome{
		ID:        uuid.NewString(),
		Sequence:  p.seq.Next(),
		ProductID: id,
		Price:     prod.Price,
		Payment:   payment,
		Change:    decimal.Zero,
		Refund:    decimal.Zero,
	}
	switch diff := payment.Sub(prod.Price); {
	case !prod.Available():
		out.Reason = ReasonNoStock
	case diff.IsNegative():
		out.Reason = ReasonInsufficientFunds
		out.Refund = payment
	default:
		out.Status = Accepted
		out.Change = diff
	}
	obs.Logger.Info("transaction_"+out.Status.String(),
		"transaction_id", out.ID,
		"sequence", out.Sequence,
		"product_id", id,
		"price", out.Price.String(),
		"payment", payment.String(),
		"reason", string(out.Reason),
		"change", out.Change.String(),
		"refund", out.Refund.String(),
	)
	return out, nil
}

// ParsePayment reads a tendered amount. Negative or non-numeric input is
// malformed.
func ParsePayment(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedPayment, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative amount %q", ErrMalformedPayment, s)
	}
	return d, nil
}
