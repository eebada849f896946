package ticket

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is a ticket type. Ferry is a transport mode, never a held ticket.
type Kind string

const (
	Taxi        Kind = "taxi"
	Bus         Kind = "bus"
	Underground Kind = "underground"
	Black       Kind = "black"
	Ferry       Kind = "ferry"
)

// Kinds lists every ticket kind that can appear in an inventory.
var Kinds = []Kind{Taxi, Bus, Underground, Black}

// ParseKind normalizes a client supplied ticket name.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Taxi, Bus, Underground, Black, Ferry:
		return k, true
	}
	return "", false
}

// IsMode reports whether k also names an edge mode.
func (k Kind) IsMode() bool {
	return k == Taxi || k == Bus || k == Underground || k == Ferry
}

// Inventory maps a ticket kind to how many the holder has left.
type Inventory map[Kind]int

// MrXInventory is Mr. X's starting hand. He receives one black ticket per detective.
func MrXInventory(detectives int) Inventory {
	return Inventory{Taxi: 4, Bus: 3, Underground: 3, Black: detectives}
}

// DetectiveInventory is the starting hand of every detective on the small map.
func DetectiveInventory() Inventory {
	return Inventory{Taxi: 10, Bus: 8, Underground: 4}
}

func (inv Inventory) Count(k Kind) int {
	return inv[k]
}

func (inv Inventory) Has(k Kind) bool {
	return k != Ferry && inv[k] > 0
}

// Debit spends one ticket of kind k.
func (inv Inventory) Debit(k Kind) error {
	if k == Ferry {
		return fmt.Errorf("ferry is not a ticket")
	}
	if inv[k] <= 0 {
		return fmt.Errorf("no %s ticket left", k)
	}
	inv[k]--
	return nil
}

// Credit adds one ticket of kind k.
func (inv Inventory) Credit(k Kind) error {
	if k == Ferry {
		return fmt.Errorf("ferry is not a ticket")
	}
	inv[k]++
	return nil
}

// Transfer moves one ticket of kind k from one inventory to another. Either both
// sides change or neither does.
func Transfer(from, to Inventory, k Kind) error {
	if k == Ferry {
		return fmt.Errorf("ferry is not a ticket")
	}
	if err := from.Debit(k); err != nil {
		return err
	}
	to[k]++
	return nil
}

func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	for k, n := range inv {
		out[k] = n
	}
	return out
}

func (inv Inventory) Total() int {
	n := 0
	for _, c := range inv {
		n += c
	}
	return n
}

// Valid reports whether every count is non-negative and no ferry tickets are held.
func (inv Inventory) Valid() bool {
	for k, n := range inv {
		if n < 0 || (k == Ferry && n != 0) {
			return false
		}
	}
	return true
}

// Held returns the kinds with a positive count in a stable order.
func (inv Inventory) Held() []Kind {
	var out []Kind
	for _, k := range Kinds {
		if inv[k] > 0 {
			out = append(out, k)
		}
	}
	return out
}

func (inv Inventory) String() string {
	keys := make([]string, 0, len(inv))
	for k := range inv {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s:%d", k, inv[Kind(k)])
	}
	return b.String()
}
