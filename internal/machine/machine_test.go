package machine

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/vending-machine-simulator/internal/console"
	"github.com/fairyhunter13/vending-machine-simulator/internal/menu"
	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
)

type recorder struct {
	lines   []string
	details []string
}

func (r *recorder) Line(text string)   { r.lines = append(r.lines, text) }
func (r *recorder) Detail(text string) { r.details = append(r.details, text) }

func (r *recorder) has(text string) bool {
	for _, l := range r.lines {
		if l == text {
			return true
		}
	}
	return false
}

func (r *recorder) count(prefix string) int {
	n := 0
	for _, l := range r.lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

func (r *recorder) last() string {
	if len(r.lines) == 0 {
		return ""
	}
	return r.lines[len(r.lines)-1]
}

type script struct {
	lines   []string
	prompts []string
}

func (s *script) push(lines ...string) { s.lines = append(s.lines, lines...) }

func (s *script) ReadLine(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	return l, nil
}

func entry(id, price string, units int) model.CatalogEntry {
	return model.CatalogEntry{ProductID: id, Price: decimal.RequireFromString(price), Units: units}
}

func newMachine(t *testing.T, cfg Config, lines ...string) (*Machine, *recorder, *script) {
	t.Helper()
	rec := &recorder{}
	in := &script{lines: lines}
	m, err := New(cfg, rec, in)
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	return m, rec, in
}

func units(m *Machine, id string) int {
	p, _ := m.Ledger().Get(id)
	return p.Units
}

func TestDefaultCatalogFallback(t *testing.T) {
	m, rec, _ := newMachine(t, Config{Name: "Dracula"})
	if !rec.has("Init>> No products given, using default.") {
		t.Fatalf("expected default catalog notice, got %v", rec.lines)
	}
	if got := m.Menu().Products(); len(got) != 2 || got[0] != "Soda-1" || got[1] != "Soda-2" {
		t.Fatalf("unexpected options %v", got)
	}
	if m.Ledger().TotalUnits() != 3 || units(m, "Soda-1") != 2 {
		t.Fatalf("unexpected stock %+v", m.Ledger().Snapshot())
	}
	if m.State() != StateGreeting {
		t.Fatalf("expected greeting, got %s", m.State())
	}
	id := m.Identity()
	if id.Name != "Dracula" || id.Type != MachineType || id.Version != Version || id.Serial == "" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestRunFullSession(t *testing.T) {
	m, rec, in := newMachine(t, Config{Name: "Dracula"},
		"0", "3.0", // B
		"0", "2.5", // C
		"0",        // D
		"1", "1.0", // E
		"1", "1.5", // F
	)
	res := m.Run()
	if res.Terminal != StateExhausted || res.Dispensed != 3 || res.TotalUnits != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(in.lines) != 0 {
		t.Fatalf("unconsumed input %v", in.lines)
	}
	if len(in.prompts) != 9 {
		t.Fatalf("expected 9 prompts, got %d: %v", len(in.prompts), in.prompts)
	}
	for _, want := range []string{
		"Hello from: Dracula !",
		"Type: Vending Machine",
		"> Your change: 0.5 $",
		"> Your change: 0 $",
		"Rejected: no stock remaining for Soda-1. Please select another one.",
		"Rejected: insufficient funds.",
		"> Your refund: 1 $",
	} {
		if !rec.has(want) {
			t.Fatalf("missing line %q in %v", want, rec.lines)
		}
	}
	if rec.count("> Here's your product: ") != 3 {
		t.Fatalf("expected 3 dispenses")
	}
	if rec.last() != "Out of product. Come back later!" {
		t.Fatalf("unexpected farewell %q", rec.last())
	}
	if m.State() != StateShutdown {
		t.Fatalf("expected shutdown, got %s", m.State())
	}
	if got := testutil.ToFloat64(m.Metrics().Dispensed.WithLabelValues("Soda-1")); got != 2 {
		t.Fatalf("expected 2 Soda-1 dispensed, got %v", got)
	}
	if got := testutil.ToFloat64(m.Metrics().Rejected.WithLabelValues("insufficient_funds")); got != 1 {
		t.Fatalf("expected 1 insufficient funds rejection, got %v", got)
	}
}

func TestExhaustionSkipsMenu(t *testing.T) {
	m, rec, _ := newMachine(t, Config{Products: []model.CatalogEntry{entry("Only", "1", 1)}}, "0", "1")
	for m.State() != StateProductFlow {
		m.Step()
	}
	menus := rec.count("* * ======{ Menu }")
	if next := m.Step(); next != StateExhausted {
		t.Fatalf("expected exhausted, got %s", next)
	}
	if !m.Ledger().IsEmpty() {
		t.Fatalf("expected empty ledger")
	}
	m.Step()
	if rec.count("* * ======{ Menu }") != menus {
		t.Fatalf("menu shown after exhaustion")
	}
	if m.Step() != StateShutdown {
		t.Fatalf("stepping after shutdown must be a no-op")
	}
}

func TestSingleUnitCanBeSold(t *testing.T) {
	m, _, _ := newMachine(t, Config{Products: []model.CatalogEntry{entry("A", "1", 1), entry("B", "1", 1)}}, "0", "1", "E")
	res := m.Run()
	if res.Dispensed != 1 || units(m, "A") != 0 || res.Terminal != StateExitRequested {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestExitCommand(t *testing.T) {
	m, rec, in := newMachine(t, Config{}, "e", "0")
	res := m.Run()
	if res.Terminal != StateExitRequested || res.Dispensed != 0 || res.TotalUnits != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if rec.last() != "Come back anytime!" {
		t.Fatalf("unexpected farewell %q", rec.last())
	}
	if len(in.lines) != 1 {
		t.Fatalf("input read after exit")
	}
}

func TestInfoDoesNotChangeState(t *testing.T) {
	m, rec, _ := newMachine(t, Config{Name: "Dracula"}, "i", "I", "E")
	before := m.Ledger().Snapshot()
	opts := m.Menu().Products()
	m.Run()
	after := m.Ledger().Snapshot()
	if len(before) != len(after) {
		t.Fatalf("stock changed")
	}
	for i := range before {
		if before[i].ProductID != after[i].ProductID || before[i].Units != after[i].Units {
			t.Fatalf("stock changed: %+v -> %+v", before[i], after[i])
		}
	}
	if got := m.Menu().Products(); len(got) != len(opts) || got[0] != opts[0] {
		t.Fatalf("options changed")
	}
	if rec.count("Machine info:") != 2 || !rec.has("Name: Dracula") || !rec.has("Version: 0.5.0") {
		t.Fatalf("missing info lines %v", rec.lines)
	}
	if !rec.has("  Soda-1: price 2.5 $, units 2") || !rec.has("Serial: "+m.Identity().Serial) {
		t.Fatalf("missing stock snapshot %v", rec.lines)
	}
}

func TestInvalidInputIsRecovered(t *testing.T) {
	m, rec, _ := newMachine(t, Config{}, "7", "abc", "x", "", "E")
	res := m.Run()
	if res.Terminal != StateExitRequested || res.TotalUnits != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if rec.count("Invalid selection: ") != 1 || rec.count("Invalid input: ") != 3 {
		t.Fatalf("unexpected diagnostics %v", rec.lines)
	}
	if got := testutil.ToFloat64(m.Metrics().InvalidInput.WithLabelValues("out_of_range")); got != 1 {
		t.Fatalf("expected 1 out of range, got %v", got)
	}
	if got := testutil.ToFloat64(m.Metrics().InvalidInput.WithLabelValues("malformed")); got != 3 {
		t.Fatalf("expected 3 malformed, got %v", got)
	}
}

func TestCommandWithoutActionIsInvalid(t *testing.T) {
	cmds := append(menu.DefaultCommands(), menu.Command{Token: "D", Action: "dance", Description: "Dance"})
	m, rec, _ := newMachine(t, Config{Commands: cmds}, "d", "E")
	m.Run()
	if rec.count("Invalid input: ") != 1 || !rec.has("[D] ---> Dance") {
		t.Fatalf("unexpected output %v", rec.lines)
	}
}

func TestMalformedPayment(t *testing.T) {
	m, rec, _ := newMachine(t, Config{}, "0", "lots", "0", "-3", "E")
	res := m.Run()
	if res.Dispensed != 0 || units(m, "Soda-1") != 2 {
		t.Fatalf("stock changed on malformed payment")
	}
	if rec.count("Invalid amount: ") != 2 {
		t.Fatalf("unexpected output %v", rec.lines)
	}
}

func TestInputClosedExits(t *testing.T) {
	m, rec, _ := newMachine(t, Config{})
	if res := m.Run(); res.Terminal != StateExitRequested {
		t.Fatalf("unexpected result %+v", res)
	}
	if rec.last() != "Come back anytime!" {
		t.Fatalf("unexpected farewell %q", rec.last())
	}

	m, _, _ = newMachine(t, Config{}, "0")
	if res := m.Run(); res.Terminal != StateExitRequested || res.TotalUnits != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestEmptyStockAtStartup(t *testing.T) {
	m, rec, in := newMachine(t, Config{Products: []model.CatalogEntry{entry("Zero", "1", 0)}}, "0")
	res := m.Run()
	if res.Terminal != StateExhausted {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(in.prompts) != 0 {
		t.Fatalf("input read from an empty machine")
	}
	if len(m.Menu().Products()) != 0 || rec.last() != "Out of product. Come back later!" {
		t.Fatalf("unexpected output %v", rec.lines)
	}
}

func TestStateSequence(t *testing.T) {
	m, _, _ := newMachine(t, Config{}, "i", "E")
	want := []State{
		StateMenuDisplay, StateAwaitingInput, StateCommandFlow,
		StateMenuDisplay, StateAwaitingInput, StateCommandFlow,
		StateExitRequested, StateShutdown,
	}
	for i, w := range want {
		if got := m.Step(); got != w {
			t.Fatalf("step %d: expected %s, got %s", i, w, got)
		}
	}
}

func TestVerbosityOnlyAffectsOutput(t *testing.T) {
	run := func(verbose bool) (Result, string) {
		var out bytes.Buffer
		in := console.NewInput(strings.NewReader("0\n3\n1\n1.5\ne\n"), &out)
		m, err := New(Config{Name: "V"}, console.NewDisplay(&out, verbose), in)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		return m.Run(), out.String()
	}
	quiet, qout := run(false)
	loud, lout := run(true)
	if quiet != loud {
		t.Fatalf("results differ: %+v vs %+v", quiet, loud)
	}
	if len(lout) <= len(qout) || !strings.Contains(lout, "Updated item: Soda-1 : 2 -> 1") {
		t.Fatalf("verbose output missing details")
	}
	if strings.Contains(qout, "Updated item:") {
		t.Fatalf("quiet output has details")
	}
}

func TestOversizedLineIsRecovered(t *testing.T) {
	var out bytes.Buffer
	long := strings.Repeat("x", 70000)
	in := console.NewInput(strings.NewReader(long+"\n0\n3\nE\n"), &out)
	rec := &recorder{}
	m, err := New(Config{}, rec, in)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res := m.Run()
	if res.Terminal != StateExitRequested || res.Dispensed != 1 || res.TotalUnits != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if rec.count("Invalid input: ") != 1 || !rec.has("> Your change: 0.5 $") {
		t.Fatalf("unexpected output %d lines", len(rec.lines))
	}
	if got := m.terminal.String(); got != "exit_requested" {
		t.Fatalf("expected exit_requested, got %s", got)
	}
}
