package machine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
	"github.com/fairyhunter13/vending-machine-simulator/internal/transaction"
)

// purchase runs the product flow for the current selection. Only an accepted
// transaction touches the ledger.
func (m *Machine) purchase() State {
	id := m.selection.ProductID
	m.display.Detail(fmt.Sprintf("Your selection: %d", m.selection.Index))

	prod, err := m.proc.Quote(id)
	if errors.Is(err, transaction.ErrNoStock) {
		m.reject(id, transaction.ReasonNoStock)
		return StateMenuDisplay
	}
	if err != nil {
		obs.Logger.Error("machine_quote_failed", "product_id", id, "error", err)
		m.display.Line("Selection unavailable: " + id)
		return StateMenuDisplay
	}
	m.display.Line(fmt.Sprintf("Selected item: %s (x%d)", prod.ProductID, prod.Units))
	m.display.Line(fmt.Sprintf("Price: %s $", prod.Price.String()))

	raw, err := m.input.ReadLine("Enter money: ")
	if err != nil {
		m.inputClosed(err)
		return StateExitRequested
	}
	payment, err := transaction.ParsePayment(raw)
	if err != nil {
		m.display.Line(fmt.Sprintf("Invalid amount: %q. Nothing was charged.", raw))
		m.metrics.InvalidInput.WithLabelValues("payment").Inc()
		return StateMenuDisplay
	}

	out, err := m.proc.Attempt(id, payment)
	if err != nil {
		obs.Logger.Error("machine_attempt_failed", "product_id", id, "error", err)
		m.display.Line(fmt.Sprintf("Transaction failed. > Your refund: %s $", payment.String()))
		return StateMenuDisplay
	}
	if !out.Accepted() {
		m.reject(id, out.Reason)
		if out.Reason == transaction.ReasonInsufficientFunds {
			m.display.Line(fmt.Sprintf("> Your refund: %s $", out.Refund.String()))
		}
		return StateMenuDisplay
	}

	m.display.Line(fmt.Sprintf("You entered: %s $", payment.String()))
	after, err := m.stock.Decrement(id)
	if err != nil {
		obs.Logger.Error("machine_dispense_failed", "transaction_id", out.ID, "product_id", id, "error", err)
		m.reject(id, transaction.ReasonNoStock)
		m.display.Line(fmt.Sprintf("> Your refund: %s $", payment.String()))
		return StateMenuDisplay
	}
	m.dispensed++
	m.metrics.Dispensed.WithLabelValues(id).Inc()
	m.metrics.UnitsRemaining.WithLabelValues(id).Set(float64(after.Units))
	m.display.Line("> Here's your product: " + id)
	m.display.Line(fmt.Sprintf("> Your change: %s $", out.Change.String()))
	m.display.Detail(fmt.Sprintf("Updated item: %s : %d -> %d", id, after.Units+1, after.Units))

	if m.stock.IsEmpty() {
		obs.Logger.Info("machine_exhausted", "dispensed", m.dispensed)
		return StateExhausted
	}
	return StateMenuDisplay
}

func (m *Machine) reject(id string, reason transaction.Reason) {
	switch reason {
	case transaction.ReasonNoStock:
		m.display.Line(fmt.Sprintf("Rejected: no stock remaining for %s. Please select another one.", id))
	case transaction.ReasonInsufficientFunds:
		m.display.Line("Rejected: insufficient funds.")
	}
	m.metrics.Rejected.WithLabelValues(strings.ReplaceAll(string(reason), " ", "_")).Inc()
}
