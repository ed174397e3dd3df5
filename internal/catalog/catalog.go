package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Entry is one product row from the price table.
type Entry struct {
	Name      string
	UnitPrice decimal.Decimal
}

// Table is the in-memory price lookup, keyed by normalized product name.
// It is read-only after construction; one pipeline run never mutates it.
type Table struct {
	entries []Entry
	byName  map[string]Entry
}

// NewTable builds the lookup from loaded entries. Names are keyed
// case-insensitively; the last entry wins on duplicate names.
func NewTable(entries []Entry) *Table {
	t := &Table{byName: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		key := normalizeName(e.Name)
		if _, seen := t.byName[key]; !seen {
			t.entries = append(t.entries, e)
		} else {
			for i := range t.entries {
				if normalizeName(t.entries[i].Name) == key {
					t.entries[i] = e
					break
				}
			}
		}
		t.byName[key] = e
	}
	return t
}

// Lookup returns the entry for an exact (case-insensitive) product name.
func (t *Table) Lookup(name string) (Entry, bool) {
	e, ok := t.byName[normalizeName(name)]
	return e, ok
}

// Entries returns the deduplicated entries in load order.
func (t *Table) Entries() []Entry {
	return t.entries
}

// Len reports the number of distinct products.
func (t *Table) Len() int {
	return len(t.byName)
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
