// Package menu derives the selectable options of a machine and classifies
// console input against them.
package menu

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
)

// ErrInvalidToken is returned by Build for a command token that is not a
// single non-digit character or is used twice.
var ErrInvalidToken = errors.New("invalid command token")

// Action names what a command option does.
type Action string

const (
	ActionExit Action = "exit"
	ActionInfo Action = "info"
)

// Command is an out-of-band option bound to a single-character token.
type Command struct {
	Token       string
	Action      Action
	Description string
}

// DefaultCommands returns the exit and info commands.
func DefaultCommands() []Command {
	return []Command{
		{Token: "E", Action: ActionExit, Description: "Exit"},
		{Token: "I", Action: ActionInfo, Description: "Machine info"},
	}
}

// Kind tags a classification result.
type Kind int

const (
	KindInvalid Kind = iota
	KindProduct
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindProduct:
		return "product"
	case KindCommand:
		return "command"
	default:
		return "invalid"
	}
}

// Reason explains an invalid classification.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonMalformed  Reason = "malformed"
	ReasonOutOfRange Reason = "out_of_range"
)

// Selection is the result of Classify. Only the fields matching Kind are set.
type Selection struct {
	Kind      Kind
	Index     int
	ProductID string
	Command   Command
	Reason    Reason
	Input     string
}

// Menu is the fixed option set of a machine. Product slots keep their index
// for the life of the menu.
type Menu struct {
	products []string
	commands []Command
	byToken  map[string]Command
}

// Build creates a menu with one product slot per id, in order, followed by
// the given commands. Tokens are matched case-insensitively.
func Build(ids []string, commands []Command) (*Menu, error) {
	m := &Menu{
		products: append([]string(nil), ids...),
		byToken:  make(map[string]Command, len(commands)),
	}
	for _, c := range commands {
		tok := strings.ToUpper(strings.TrimSpace(c.Token))
		r := []rune(tok)
		if len(r) != 1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidToken, c.Token)
		}
		// Digits always classify as product slots.
		if unicode.IsDigit(r[0]) {
			return nil, fmt.Errorf("%w: %q is a digit", ErrInvalidToken, c.Token)
		}
		if _, dup := m.byToken[tok]; dup {
			return nil, fmt.Errorf("%w: %q used twice", ErrInvalidToken, tok)
		}
		c.Token = tok
		m.byToken[tok] = c
		m.commands = append(m.commands, c)
	}
	return m, nil
}

// Products returns the product identifiers by slot index.
func (m *Menu) Products() []string {
	return append([]string(nil), m.products...)
}

// Commands returns the command options in display order.
func (m *Menu) Commands() []Command {
	return append([]Command(nil), m.commands...)
}

// ProductID returns the identifier behind a slot.
func (m *Menu) ProductID(index int) (string, bool) {
	if index < 0 || index >= len(m.products) {
		return "", false
	}
	return m.products[index], true
}

// Classify maps raw console input to a product slot, a command or nothing.
func (m *Menu) Classify(raw string) Selection {
	in := strings.TrimSpace(raw)
	sel := Selection{Kind: KindInvalid, Reason: ReasonMalformed, Input: in}
	if in == "" {
		return sel
	}
	// ParseUint rejects signs, so "-1" and "+1" fall through to malformed.
	n, err := strconv.ParseUint(in, 10, 0)
	switch {
	case err == nil && n < uint64(len(m.products)):
		return Selection{Kind: KindProduct, Index: int(n), ProductID: m.products[n], Input: in}
	case err == nil, errors.Is(err, strconv.ErrRange):
		sel.Reason = ReasonOutOfRange
		return sel
	}
	if c, ok := m.byToken[strings.ToUpper(in)]; ok {
		return Selection{Kind: KindCommand, Command: c, Input: in}
	}
	return sel
}

// Lines renders the menu body. Products missing from the snapshot are shown
// with zero units.
func (m *Menu) Lines(snapshot []model.Product) []string {
	byID := make(map[string]model.Product, len(snapshot))
	for _, p := range snapshot {
		byID[p.ProductID] = p
	}
	lines := make([]string, 0, len(m.products)+len(m.commands))
	for i, id := range m.products {
		p := byID[id]
		lines = append(lines, fmt.Sprintf("[%d] ---> I: %s  P: %s $  Q: %d", i, id, p.Price.String(), p.Units))
	}
	for _, c := range m.commands {
		lines = append(lines, fmt.Sprintf("[%s] ---> %s", c.Token, c.Description))
	}
	return lines
}
