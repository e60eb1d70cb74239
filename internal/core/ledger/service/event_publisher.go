package service

import (
	"sync"
	"time"

	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/gagliardetto/solana-go"
)

var _ tx.Observer = (*EventPublisher)(nil)

// TransactionEvent describes one processed transaction.
type TransactionEvent struct {
	ID              string           `json:"id"`
	TransactionType string           `json:"transaction_type"`
	DataFeed        solana.PublicKey `json:"data_feed"`
	Signer          solana.PublicKey `json:"signer"`
	Result          string           `json:"engine_result"`
	Applied         bool             `json:"applied"`
	Time            time.Time        `json:"time"`
}

// ReadEvent describes one authorized read attempt.
type ReadEvent struct {
	Caller   solana.PublicKey `json:"caller"`
	DataFeed solana.PublicKey `json:"data_feed"`
	Result   string           `json:"result"`
	Time     time.Time        `json:"time"`
}

// EventHooks provides structured callbacks for engine events. Hooks run on
// the engine's goroutine and must not block.
type EventHooks struct {
	// OnTransaction is called for every transaction, applied or not
	OnTransaction func(event TransactionEvent)

	// OnRead is called for every read through the pull path
	OnRead func(event ReadEvent)
}

// EventPublisher forwards engine events to the registered hooks.
type EventPublisher struct {
	mu    sync.RWMutex
	hooks []*EventHooks
}

// NewEventPublisher creates a new event publisher.
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{}
}

// AddHooks registers hooks and returns a function removing them.
func (p *EventPublisher) AddHooks(hooks *EventHooks) (remove func()) {
	p.mu.Lock()
	p.hooks = append(p.hooks, hooks)
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, h := range p.hooks {
			if h == hooks {
				p.hooks = append(p.hooks[:i], p.hooks[i+1:]...)
				return
			}
		}
	}
}

// HasSubscribers returns true if any hooks are registered.
func (p *EventPublisher) HasSubscribers() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.hooks) > 0
}

// TransactionApplied implements tx.Observer.
func (p *EventPublisher) TransactionApplied(t tx.Transaction, result tx.ApplyResult) {
	if t.TxType().IsReadOnly() {
		return
	}
	common := t.GetCommon()
	event := TransactionEvent{
		ID:              common.ID(),
		TransactionType: t.TxType().String(),
		DataFeed:        common.DataFeed,
		Signer:          common.Signer,
		Result:          result.Result.String(),
		Applied:         result.Applied,
		Time:            time.Now().UTC(),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, h := range p.hooks {
		if h.OnTransaction != nil {
			h.OnTransaction(event)
		}
	}
}

// FeedRead implements tx.Observer.
func (p *EventPublisher) FeedRead(caller, feed solana.PublicKey, result tx.Result) {
	event := ReadEvent{
		Caller:   caller,
		DataFeed: feed,
		Result:   result.String(),
		Time:     time.Now().UTC(),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, h := range p.hooks {
		if h.OnRead != nil {
			h.OnRead(event)
		}
	}
}
