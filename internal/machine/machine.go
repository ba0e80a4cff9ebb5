// Package machine runs the vending machine's control loop: greet, show the
// menu, read a choice, sell or run a command, and stop on exit or when the
// stock runs out.
package machine

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/fairyhunter13/vending-machine-simulator/internal/catalog"
	"github.com/fairyhunter13/vending-machine-simulator/internal/ledger"
	"github.com/fairyhunter13/vending-machine-simulator/internal/menu"
	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
	"github.com/fairyhunter13/vending-machine-simulator/internal/transaction"
)

const (
	MachineType = "Vending Machine"
	Version     = "0.5.0"
)

// Display is the output sink. Detail lines may be dropped by the sink.
type Display interface {
	Line(text string)
	Detail(text string)
}

// Input yields one line of user text per call.
type Input interface {
	ReadLine(prompt string) (string, error)
}

// Config configures a machine. An empty Products list selects the built-in
// catalog and nil Commands the default exit/info commands.
type Config struct {
	Name     string
	Products []model.CatalogEntry
	Commands []menu.Command
	Metrics  *obs.Metrics
}

// Result summarizes a finished session.
type Result struct {
	Terminal   State
	Dispensed  int
	TotalUnits int
}

// Machine is a single vending machine session.
type Machine struct {
	id      model.Identity
	stock   *ledger.Ledger
	menu    *menu.Menu
	proc    *transaction.Processor
	display Display
	input   Input
	metrics *obs.Metrics

	state     State
	terminal  State
	selection menu.Selection
	dispensed int
}

// New fills a machine and leaves it in the greeting state.
func New(cfg Config, d Display, in Input) (*Machine, error) {
	name := cfg.Name
	if name == "" {
		name = "Default"
	}
	commands := cfg.Commands
	if commands == nil {
		commands = menu.DefaultCommands()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = obs.NewMetrics()
	}
	m := &Machine{
		id: model.Identity{
			Name:    name,
			Type:    MachineType,
			Version: Version,
			Serial:  uuid.NewString(),
		},
		stock:   ledger.New(),
		display: d,
		input:   in,
		metrics: metrics,
		state:   StateGreeting,
	}
	d.Line("Initializing " + MachineType)
	products := cfg.Products
	if len(products) == 0 {
		d.Line("Init>> No products given, using default.")
		products = catalog.OrDefault(nil)
	}
	m.fill(products)

	mn, err := menu.Build(m.stock.IDs(), commands)
	if err != nil {
		return nil, fmt.Errorf("build menu: %w", err)
	}
	m.menu = mn
	m.proc = transaction.New(m.stock)
	obs.Logger.Info("machine_ready", "name", m.id.Name, "serial", m.id.Serial, "total_units", m.stock.TotalUnits())
	return m, nil
}

func (m *Machine) fill(products []model.CatalogEntry) {
	m.display.Detail("Filling machine stock with products...")
	rep := m.stock.Fill(products)
	for _, e := range rep.Added {
		m.display.Detail(fmt.Sprintf("Product Added: %s Price: %s Units: %d", e.ProductID, e.Price.String(), e.Units))
	}
	for _, r := range rep.Rejected {
		m.display.Detail(fmt.Sprintf("Product: %q not added to stock (%s).", r.Entry.ProductID, r.Reason))
	}
	for _, p := range m.stock.Snapshot() {
		m.metrics.UnitsRemaining.WithLabelValues(p.ProductID).Set(float64(p.Units))
	}
	m.display.Line(fmt.Sprintf("Total items available: %d", m.stock.TotalUnits()))
}

func (m *Machine) Identity() model.Identity { return m.id }
func (m *Machine) State() State             { return m.state }
func (m *Machine) Ledger() *ledger.Ledger   { return m.stock }
func (m *Machine) Menu() *menu.Menu         { return m.menu }
func (m *Machine) Metrics() *obs.Metrics    { return m.metrics }

// Run drives the machine until shutdown.
func (m *Machine) Run() Result {
	for m.state != StateShutdown {
		m.Step()
	}
	return Result{Terminal: m.terminal, Dispensed: m.dispensed, TotalUnits: m.stock.TotalUnits()}
}

// Step performs one transition and returns the new state. Stepping a shut
// down machine is a no-op.
func (m *Machine) Step() State {
	from := m.state
	var next State
	switch from {
	case StateGreeting:
		m.greet()
		next = StateMenuDisplay
	case StateMenuDisplay:
		next = m.showMenu()
	case StateAwaitingInput:
		next = m.awaitInput()
	case StateProductFlow:
		next = m.purchase()
	case StateCommandFlow:
		next = m.runCommand()
	case StateInvalidFlow:
		m.reportInvalid()
		next = StateMenuDisplay
	case StateExitRequested:
		m.display.Line("Come back anytime!")
		next = StateShutdown
	case StateExhausted:
		m.display.Line("Out of product. Come back later!")
		next = StateShutdown
	default:
		return m.state
	}
	if next == StateExitRequested || next == StateExhausted {
		m.terminal = next
	}
	obs.Logger.Debug("machine_transition", "from", from.String(), "to", next.String())
	m.state = next
	return next
}

func (m *Machine) greet() {
	m.display.Line(fmt.Sprintf("Hello from: %s !", m.id.Name))
	m.display.Line("Type: " + m.id.Type)
}

func (m *Machine) showMenu() State {
	m.display.Line("* * ======{ Menu }====== * *")
	m.display.Line(fmt.Sprintf("%s currently has: %d item(s).", m.id.Type, m.stock.TotalUnits()))
	m.display.Line("> Select an option from the available products:")
	for _, line := range m.menu.Lines(m.stock.Snapshot()) {
		m.display.Line(line)
	}
	if m.stock.IsEmpty() {
		return StateExhausted
	}
	return StateAwaitingInput
}

func (m *Machine) awaitInput() State {
	raw, err := m.input.ReadLine("Enter item: ")
	if err != nil {
		m.inputClosed(err)
		return StateExitRequested
	}
	m.selection = m.menu.Classify(raw)
	switch m.selection.Kind {
	case menu.KindProduct:
		return StateProductFlow
	case menu.KindCommand:
		return StateCommandFlow
	default:
		return StateInvalidFlow
	}
}

func (m *Machine) inputClosed(err error) {
	if errors.Is(err, io.EOF) {
		obs.Logger.Info("machine_input_closed")
		return
	}
	obs.Logger.Warn("machine_input_error", "error", err)
}

func (m *Machine) reportInvalid() {
	sel := m.selection
	switch sel.Reason {
	case menu.ReasonOutOfRange:
		m.display.Line(fmt.Sprintf("Invalid selection: %q is not a product number.", sel.Input))
	default:
		m.display.Line(fmt.Sprintf("Invalid input: %q. Enter a product number or a command.", sel.Input))
	}
	reason := sel.Reason
	if reason == menu.ReasonNone {
		reason = menu.ReasonMalformed
	}
	m.metrics.InvalidInput.WithLabelValues(string(reason)).Inc()
	obs.Logger.Info("machine_invalid_input", "input", sel.Input, "reason", string(reason))
}

func (m *Machine) runCommand() State {
	switch m.selection.Command.Action {
	case menu.ActionExit:
		return StateExitRequested
	case menu.ActionInfo:
		m.info()
		return StateMenuDisplay
	default:
		m.selection = menu.Selection{Kind: menu.KindInvalid, Reason: menu.ReasonMalformed, Input: m.selection.Input}
		return StateInvalidFlow
	}
}

func (m *Machine) info() {
	m.display.Line("Machine info:")
	m.display.Line("Type: " + m.id.Type)
	m.display.Line("Name: " + m.id.Name)
	m.display.Line("Version: " + m.id.Version)
	m.display.Line("Serial: " + m.id.Serial)
	m.display.Line("Stock:")
	for _, p := range m.stock.Snapshot() {
		m.display.Line(fmt.Sprintf("  %s: price %s $, units %d", p.ProductID, p.Price.String(), p.Units))
	}
	m.display.Line(fmt.Sprintf("Total items: %d", m.stock.TotalUnits()))
}
