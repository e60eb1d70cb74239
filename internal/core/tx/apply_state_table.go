package tx

import (
	"bytes"
	"errors"
	"sort"

	"github.com/LeJamon/goOracled/internal/core/ledger/entry"
	"github.com/LeJamon/goOracled/internal/core/ledger/keylet"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrEntryExists   = errors.New("entry already exists")
	ErrEntryNotFound = errors.New("entry not found")
)

// Action represents the type of modification to a ledger entry
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

func (a Action) String() string {
	switch a {
	case ActionCache:
		return "Cache"
	case ActionInsert:
		return "Insert"
	case ActionModify:
		return "Modify"
	case ActionErase:
		return "Erase"
	default:
		return "Unknown"
	}
}

// TrackedEntry represents a ledger entry being tracked for changes
type TrackedEntry struct {
	Type     entry.Type
	Action   Action
	Original []byte // Original state (nil for inserts)
	Current  []byte // Current state
}

// Change is one committed modification, in the form handed to BatchView.
type Change struct {
	Key    keylet.Keylet
	Action Action // ActionInsert, ActionModify or ActionErase
	Data   []byte // nil for ActionErase
}

// AffectedNode describes one entry touched by a transaction.
type AffectedNode struct {
	NodeType        string           `json:"NodeType"` // CreatedNode, ModifiedNode, DeletedNode
	LedgerEntryType string           `json:"LedgerEntryType"`
	LedgerIndex     solana.PublicKey `json:"LedgerIndex"`
}

// Metadata records the outcome of an applied transaction.
type Metadata struct {
	TransactionResult Result         `json:"-"`
	AffectedNodes     []AffectedNode `json:"AffectedNodes"`
}

// ApplyStateTable wraps a LedgerView and buffers all modifications made by
// one transaction. Nothing reaches the base view until Apply.
type ApplyStateTable struct {
	base  LedgerView
	items map[solana.PublicKey]*TrackedEntry
}

// NewApplyStateTable creates a new ApplyStateTable wrapping the given base view
func NewApplyStateTable(base LedgerView) *ApplyStateTable {
	return &ApplyStateTable{
		base:  base,
		items: make(map[solana.PublicKey]*TrackedEntry),
	}
}

// Read reads a ledger entry, tracking it as cached
func (t *ApplyStateTable) Read(k keylet.Keylet) ([]byte, error) {
	// Check if already tracked
	if e, exists := t.items[k.Key]; exists {
		if e.Action == ActionErase {
			return nil, nil
		}
		return e.Current, nil
	}

	// Read from base
	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}

	// Only track entries that exist in the base
	if data != nil {
		t.items[k.Key] = &TrackedEntry{
			Type:     k.Type,
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}

	return data, nil
}

// Exists checks if an entry exists
func (t *ApplyStateTable) Exists(k keylet.Keylet) (bool, error) {
	if e, exists := t.items[k.Key]; exists {
		return e.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new entry
func (t *ApplyStateTable) Insert(k keylet.Keylet, data []byte) error {
	if e, exists := t.items[k.Key]; exists {
		if e.Action != ActionErase {
			return ErrEntryExists
		}
		// Re-inserting a deleted entry becomes a modify
		e.Action = ActionModify
		e.Current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ErrEntryExists
	}

	t.items[k.Key] = &TrackedEntry{
		Type:    k.Type,
		Action:  ActionInsert,
		Current: data,
	}
	return nil
}

// Update modifies an existing entry
func (t *ApplyStateTable) Update(k keylet.Keylet, data []byte) error {
	if e, exists := t.items[k.Key]; exists {
		if e.Action == ActionErase {
			return ErrEntryNotFound
		}
		if e.Action == ActionCache {
			e.Action = ActionModify
		}
		// For insert, keep it as insert with new data
		e.Current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return ErrEntryNotFound
	}

	t.items[k.Key] = &TrackedEntry{
		Type:     k.Type,
		Action:   ActionModify,
		Original: original,
		Current:  data,
	}
	return nil
}

// Erase removes an entry
func (t *ApplyStateTable) Erase(k keylet.Keylet) error {
	if e, exists := t.items[k.Key]; exists {
		switch e.Action {
		case ActionErase:
			return ErrEntryNotFound
		case ActionInsert:
			// Inserting then deleting = no change
			delete(t.items, k.Key)
			return nil
		}
		e.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return ErrEntryNotFound
	}

	t.items[k.Key] = &TrackedEntry{
		Type:     k.Type,
		Action:   ActionErase,
		Original: original,
		Current:  original,
	}
	return nil
}

// ForEach iterates over the base view with buffered changes applied.
func (t *ApplyStateTable) ForEach(fn func(key solana.PublicKey, data []byte) bool) error {
	seen := make(map[solana.PublicKey]struct{})
	stopped := false
	err := t.base.ForEach(func(key solana.PublicKey, data []byte) bool {
		seen[key] = struct{}{}
		if e, ok := t.items[key]; ok {
			if e.Action == ActionErase {
				return true
			}
			data = e.Current
		}
		if !fn(key, data) {
			stopped = true
			return false
		}
		return true
	})
	if err != nil || stopped {
		return err
	}
	for _, key := range t.sortedKeys() {
		e := t.items[key]
		if _, ok := seen[key]; ok || e.Action != ActionInsert {
			continue
		}
		if !fn(key, e.Current) {
			return nil
		}
	}
	return nil
}

// Changes returns the buffered modifications in key order. Entries that were
// only read, or modified back to their original bytes, are skipped.
func (t *ApplyStateTable) Changes() []Change {
	changes := make([]Change, 0, len(t.items))
	for _, key := range t.sortedKeys() {
		e := t.items[key]
		k := keylet.Keylet{Type: e.Type, Key: key}
		switch e.Action {
		case ActionInsert:
			changes = append(changes, Change{Key: k, Action: ActionInsert, Data: e.Current})
		case ActionModify:
			if bytes.Equal(e.Original, e.Current) {
				continue
			}
			changes = append(changes, Change{Key: k, Action: ActionModify, Data: e.Current})
		case ActionErase:
			changes = append(changes, Change{Key: k, Action: ActionErase})
		}
	}
	return changes
}

// Apply commits all changes to the base view and returns generated metadata.
// When the base is a BatchView the whole set is committed atomically.
func (t *ApplyStateTable) Apply() (*Metadata, error) {
	changes := t.Changes()

	metadata := &Metadata{
		AffectedNodes: make([]AffectedNode, 0, len(changes)),
	}
	for _, c := range changes {
		metadata.AffectedNodes = append(metadata.AffectedNodes, AffectedNode{
			NodeType:        nodeType(c.Action),
			LedgerEntryType: c.Key.Type.String(),
			LedgerIndex:     c.Key.Key,
		})
	}

	if len(changes) == 0 {
		return metadata, nil
	}

	if batch, ok := t.base.(BatchView); ok {
		if err := batch.ApplyChanges(changes); err != nil {
			return nil, err
		}
		return metadata, nil
	}

	for _, c := range changes {
		var err error
		switch c.Action {
		case ActionInsert:
			err = t.base.Insert(c.Key, c.Data)
		case ActionModify:
			err = t.base.Update(c.Key, c.Data)
		case ActionErase:
			err = t.base.Erase(c.Key)
		}
		if err != nil {
			return nil, err
		}
	}
	return metadata, nil
}

// Discard drops every buffered change.
func (t *ApplyStateTable) Discard() {
	t.items = make(map[solana.PublicKey]*TrackedEntry)
}

func (t *ApplyStateTable) sortedKeys() []solana.PublicKey {
	keys := make([]solana.PublicKey, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

func nodeType(a Action) string {
	switch a {
	case ActionInsert:
		return "CreatedNode"
	case ActionErase:
		return "DeletedNode"
	default:
		return "ModifiedNode"
	}
}
