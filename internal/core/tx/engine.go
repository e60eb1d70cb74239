package tx

import (
	"context"
	"time"

	"github.com/LeJamon/goOracled/internal/core/auth"
	"github.com/LeJamon/goOracled/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goOracled/internal/core/ledger/keylet"
	"github.com/LeJamon/goOracled/internal/core/pull"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds the number of feeds ApplyAll works on at once.
const DefaultWorkers = 8

// EngineConfig holds configuration for the transaction engine
type EngineConfig struct {
	// ProgramID is the oracle program identity data feed addresses derive from
	ProgramID solana.PublicKey

	// RejectStaleTimestamps rejects setValue with a timestamp older than the stored one
	RejectStaleTimestamps bool

	// Workers bounds ApplyAll concurrency; zero means DefaultWorkers
	Workers int

	// SkipSignatureVerification skips signature checks (for testing only)
	SkipSignatureVerification bool
}

// LedgerView provides read/write access to ledger state
type LedgerView interface {
	// Read reads a ledger entry; it returns nil data and no error when absent
	Read(k keylet.Keylet) ([]byte, error)

	// Exists checks if an entry exists
	Exists(k keylet.Keylet) (bool, error)

	// Insert adds a new entry
	Insert(k keylet.Keylet, data []byte) error

	// Update modifies an existing entry
	Update(k keylet.Keylet, data []byte) error

	// Erase removes an entry
	Erase(k keylet.Keylet) error

	// ForEach iterates over all state entries
	// If fn returns false, iteration stops early
	ForEach(fn func(key solana.PublicKey, data []byte) bool) error
}

// BatchView is a LedgerView that can commit a set of changes atomically.
type BatchView interface {
	LedgerView
	ApplyChanges(changes []Change) error
}

// Observer is notified after every transaction and read.
type Observer interface {
	TransactionApplied(tx Transaction, result ApplyResult)
	FeedRead(caller, feed solana.PublicKey, result Result)
}

// ApplyResult contains the result of applying a transaction
type ApplyResult struct {
	// Result is the transaction result code
	Result Result

	// Applied indicates if the transaction changed ledger state
	Applied bool

	// Metadata contains the changes made by the transaction
	Metadata *Metadata

	// Message is a human-readable result message
	Message string

	// Reading is the value returned by a read-only transaction
	Reading *pull.Reading

	// Elapsed is the time spent applying, lock wait included
	Elapsed time.Duration
}

// Err returns the result as an error, nil on success.
func (r ApplyResult) Err() error {
	return r.Result.Err()
}

// Engine processes transactions against a ledger view
type Engine struct {
	view      LedgerView
	config    EngineConfig
	log       *zap.Logger
	locks     *addressLocks
	observers []Observer
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithObserver registers an observer
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

// NewEngine creates a new transaction engine
func NewEngine(view LedgerView, config EngineConfig, opts ...Option) *Engine {
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	e := &Engine{
		view:   view,
		config: config,
		log:    zap.NewNop(),
		locks:  newAddressLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("engine")
	return e
}

// Config returns the engine configuration
func (e *Engine) Config() EngineConfig {
	return e.config
}

// AddObserver registers an observer after construction. It is not safe to
// call concurrently with Apply.
func (e *Engine) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

// Apply processes a transaction. Operations against the same data feed are
// serialized; a failed transaction leaves state unchanged.
func (e *Engine) Apply(ctx context.Context, tx Transaction) ApplyResult {
	start := time.Now()
	res := e.apply(ctx, tx)
	res.Elapsed = time.Since(start)
	res.Message = res.Result.Message()

	common := tx.GetCommon()
	fields := []zap.Field{
		zap.Stringer("type", tx.TxType()),
		zap.Stringer("result", res.Result),
		zap.Stringer("feed", common.DataFeed),
		zap.Stringer("signer", common.Signer),
		zap.Duration("elapsed", res.Elapsed),
	}
	if res.Result.IsSuccess() {
		e.log.Debug("applied transaction", fields...)
	} else {
		e.log.Info("transaction rejected", fields...)
	}

	for _, o := range e.observers {
		o.TransactionApplied(tx, res)
	}
	return res
}

func (e *Engine) apply(ctx context.Context, tx Transaction) ApplyResult {
	// Step 1: Preflight checks (syntax and signature)
	if result := e.preflight(tx); !result.IsSuccess() {
		return ApplyResult{Result: result}
	}

	if err := ctx.Err(); err != nil {
		return ApplyResult{Result: TefFAILURE}
	}

	// Step 2: Serialize against other operations on the same account
	common := tx.GetCommon()
	readOnly := tx.TxType().IsReadOnly()
	unlock := e.locks.lock(common.DataFeed, readOnly)
	defer unlock()

	// Step 3: Apply against a buffered view
	table := NewApplyStateTable(e.view)
	actx := &ApplyContext{
		View:     table,
		Signer:   common.Signer,
		Feed:     keylet.At(common.DataFeed),
		Sequence: common.Sequence,
		Config:   e.config,
		Log: e.log.With(
			zap.Stringer("type", tx.TxType()),
			zap.Stringer("feed", common.DataFeed),
		),
	}

	sequenced := tx.TxType().IsSequenced()
	result := TesSUCCESS
	if sequenced {
		result = actx.CheckSequence()
	}
	if result.IsSuccess() {
		result = tx.Apply(actx)
	}
	// Every applied update consumes its sequence, no-ops included.
	if result.IsSuccess() && sequenced {
		result = actx.ConsumeSequence()
	}
	if !result.IsSuccess() || readOnly {
		table.Discard()
		return ApplyResult{Result: result, Reading: actx.Reading}
	}

	// Step 4: Commit all buffered changes at once
	metadata, err := table.Apply()
	if err != nil {
		e.log.Error("commit failed", zap.Stringer("feed", common.DataFeed), zap.Error(err))
		return ApplyResult{Result: TefINTERNAL}
	}
	metadata.TransactionResult = result

	return ApplyResult{
		Result:   result,
		Applied:  len(metadata.AffectedNodes) > 0,
		Metadata: metadata,
	}
}

func (e *Engine) preflight(tx Transaction) Result {
	if err := tx.Validate(); err != nil {
		if r := ResultOf(err); r != TefINTERNAL {
			return r
		}
		return TemMALFORMED
	}

	if !e.config.SkipSignatureVerification {
		if err := VerifySignature(tx); err != nil {
			return ResultOf(err)
		}
	}
	return TesSUCCESS
}

// ApplyAll applies a batch of transactions. Transactions are grouped by data
// feed; each group runs in submission order while groups run concurrently.
// Results are returned in submission order. The error is non-nil only when
// ctx is cancelled; transactions not reached by then report TefFAILURE.
func (e *Engine) ApplyAll(ctx context.Context, txs []Transaction) ([]ApplyResult, error) {
	results := make([]ApplyResult, len(txs))
	for i := range results {
		results[i] = ApplyResult{Result: TefFAILURE, Message: TefFAILURE.Message()}
	}

	groups := make(map[solana.PublicKey][]int)
	order := make([]solana.PublicKey, 0)
	for i, t := range txs {
		addr := t.GetCommon().DataFeed
		if _, ok := groups[addr]; !ok {
			order = append(order, addr)
		}
		groups[addr] = append(groups[addr], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)
	for _, addr := range order {
		indexes := groups[addr]
		g.Go(func() error {
			for _, i := range indexes {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = e.Apply(gctx, txs[i])
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

// Invoke performs an authorized read of the data feed at address on behalf
// of caller. It never mutates state.
func (e *Engine) Invoke(ctx context.Context, caller, address solana.PublicKey) (pull.Reading, error) {
	if err := ctx.Err(); err != nil {
		return pull.Reading{}, err
	}

	unlock := e.locks.lock(address, true)
	reading, result := e.read(caller, address)
	unlock()

	for _, o := range e.observers {
		o.FeedRead(caller, address, result)
	}
	if !result.IsSuccess() {
		e.log.Debug("read denied",
			zap.Stringer("feed", address),
			zap.Stringer("caller", caller),
			zap.Stringer("result", result),
		)
		return pull.Reading{}, result.Err()
	}
	return reading, nil
}

func (e *Engine) read(caller, address solana.PublicKey) (pull.Reading, Result) {
	feed, err := LoadDataFeed(e.view, e.config.ProgramID, address)
	if err != nil {
		return pull.Reading{}, ResultOf(err)
	}
	if r := DecisionResult(auth.Authorize(caller, feed, auth.OpRead)); !r.IsSuccess() {
		return pull.Reading{}, r
	}
	return pull.Reading{
		Value:     feed.Value,
		Timestamp: feed.Timestamp,
		License:   feed.License,
	}, TesSUCCESS
}

// DataFeed loads the account at address without read authorization. Callers
// exposing it must not reveal the reading of a private feed.
func (e *Engine) DataFeed(address solana.PublicKey) (*entries.DataFeed, error) {
	unlock := e.locks.lock(address, true)
	defer unlock()
	return LoadDataFeed(e.view, e.config.ProgramID, address)
}

// Derive returns the data feed keylet for (owner, feedID) under the
// engine's program.
func (e *Engine) Derive(owner solana.PublicKey, feedID uint16) (keylet.Keylet, error) {
	return keylet.DataFeed(e.config.ProgramID, owner, feedID)
}

var _ pull.Invoker = (*Engine)(nil)
