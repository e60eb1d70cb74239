package tx

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownTransactionType is returned when a transaction type is unknown
var ErrUnknownTransactionType = errors.New("unknown transaction type")

// Factory returns a zero transaction of one type.
type Factory func() Transaction

var (
	registryMu sync.RWMutex
	registry   = make(map[Type]Factory)
)

// Register installs the factory for txType. Handler packages call it from
// init(); registering the same type twice panics.
func Register(txType Type, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[txType]; dup {
		panic(fmt.Sprintf("tx: duplicate registration of %s", txType))
	}
	registry[txType] = factory
}

// NewFromType creates a new transaction of the given type
func NewFromType(txType Type) (Transaction, error) {
	registryMu.RLock()
	factory, ok := registry[txType]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransactionType, txType)
	}
	return factory(), nil
}

// SupportedTypes returns the registered transaction types in code order
func SupportedTypes() []Type {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// FromJSON creates a Transaction from a JSON object
func FromJSON(data []byte) (Transaction, error) {
	// First, unmarshal to get the TransactionType
	var raw struct {
		TransactionType string `json:"TransactionType"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	txType, ok := TypeFromName(raw.TransactionType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransactionType, raw.TransactionType)
	}

	// Create the appropriate transaction type
	tx, err := NewFromType(txType)
	if err != nil {
		return nil, err
	}

	// Unmarshal into the specific type
	if err := json.Unmarshal(data, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// ToJSON serializes a transaction to JSON
func ToJSON(tx Transaction) ([]byte, error) {
	return json.Marshal(tx)
}
