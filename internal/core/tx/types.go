package tx

import "fmt"

// Type represents a transaction type code
type Type uint16

// All transaction type codes
const (
	TypeInvalid Type = 0xFFFF // Invalid/unknown type

	TypeInitialize         Type = 0 // create a data feed account
	TypeSetValue           Type = 1 // publish a reading
	TypeSetLicense         Type = 2 // change the read policy
	TypeAddSubscription    Type = 3 // grant read access
	TypeRevokeSubscription Type = 4 // withdraw read access
	TypeSetAuditor         Type = 5 // assign the limit auditor
	TypeSetLimit           Type = 6 // configure the value range
	TypeGetDataFeed        Type = 7 // signed direct read
)

var typeNames = map[Type]string{
	TypeInitialize:         "Initialize",
	TypeSetValue:           "SetValue",
	TypeSetLicense:         "SetLicense",
	TypeAddSubscription:    "AddSubscription",
	TypeRevokeSubscription: "RevokeSubscription",
	TypeSetAuditor:         "SetAuditor",
	TypeSetLimit:           "SetLimit",
	TypeGetDataFeed:        "GetDataFeed",
}

// instructionNames are the snake_case names hashed into instruction
// discriminators.
var instructionNames = map[Type]string{
	TypeInitialize:         "initialize",
	TypeSetValue:           "set_value",
	TypeSetLicense:         "set_license",
	TypeAddSubscription:    "add_subscription",
	TypeRevokeSubscription: "revoke_subscription",
	TypeSetAuditor:         "set_auditor",
	TypeSetLimit:           "set_limit",
	TypeGetDataFeed:        "get_datafeed",
}

var typeNameMap = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

// String returns the string representation of the transaction type
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint16(t))
}

// InstructionName returns the snake_case instruction name.
func (t Type) InstructionName() string {
	return instructionNames[t]
}

// TypeFromName returns the transaction type for a given name
func TypeFromName(name string) (Type, bool) {
	t, ok := typeNameMap[name]
	return t, ok
}

// IsReadOnly returns true for transaction types that never write state
func (t Type) IsReadOnly() bool {
	return t == TypeGetDataFeed
}

// IsSequenced returns true for transaction types that update an existing
// data feed. They carry the feed's current sequence and consume it.
func (t Type) IsSequenced() bool {
	return t != TypeInitialize && !t.IsReadOnly()
}
