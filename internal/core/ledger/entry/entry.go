package entry

import (
	"fmt"
)

// Type represents a ledger entry type
type Type uint16

// All known ledger entry types
const (
	TypeInvalid  Type = 0x0000
	TypeDataFeed Type = 0x0080 // Data feed accounts
)

// String returns the string representation of the Type
func (t Type) String() string {
	switch t {
	case TypeDataFeed:
		return "DataFeed"
	default:
		return fmt.Sprintf("Unknown(%#x)", uint16(t))
	}
}

// Entry defines the interface for all ledger entries
type Entry interface {
	Type() Type
	Validate() error
}
