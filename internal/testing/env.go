package testing

import (
	"context"
	"testing"
	"time"

	"github.com/LeJamon/goOracled/internal/config"
	"github.com/LeJamon/goOracled/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goOracled/internal/core/ledger/keylet"
	"github.com/LeJamon/goOracled/internal/core/ledger/state"
	"github.com/LeJamon/goOracled/internal/core/pull"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/LeJamon/goOracled/internal/core/tx/oracle"
	"github.com/LeJamon/goOracled/internal/storage"
	"github.com/LeJamon/goOracled/internal/storage/database"
	"github.com/LeJamon/goOracled/internal/storage/database/memory"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	_ "github.com/LeJamon/goOracled/internal/core/tx/all"
)

// TestEnv manages a test oracle ledger. It provides a simplified interface
// for creating feeds, submitting transactions, and inspecting committed state.
type TestEnv struct {
	t      *testing.T
	ledger *state.Ledger
	engine *tx.Engine
	clock  *ManualClock
	config tx.EngineConfig
}

// NewTestEnv creates a new test environment over an in-memory database,
// using the default program id.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return NewTestEnvWithConfig(t, tx.EngineConfig{})
}

// NewTestEnvWithConfig creates a test environment with a custom engine
// configuration. A zero ProgramID is replaced by the default program id.
func NewTestEnvWithConfig(t *testing.T, cfg tx.EngineConfig) *TestEnv {
	t.Helper()
	db := memory.NewDB()
	t.Cleanup(func() { db.Close() })
	return newTestEnv(t, cfg, db)
}

// NewTestEnvBacked creates a test environment stored in pebble under a
// temporary directory.
func NewTestEnvBacked(t *testing.T) *TestEnv {
	t.Helper()
	db, manager, err := storage.Open(storage.BackendPebble, t.TempDir(), "feeds")
	if err != nil {
		t.Fatalf("Failed to open pebble: %v", err)
	}
	t.Cleanup(func() { manager.Close() })
	return newTestEnv(t, tx.EngineConfig{}, db)
}

func newTestEnv(t *testing.T, cfg tx.EngineConfig, db database.DB) *TestEnv {
	t.Helper()
	if cfg.ProgramID.IsZero() {
		cfg.ProgramID = solana.MustPublicKeyFromBase58(config.DefaultProgramID)
	}
	ledger, err := state.New(db, state.Config{})
	if err != nil {
		t.Fatalf("Failed to create state ledger: %v", err)
	}
	return &TestEnv{
		t:      t,
		ledger: ledger,
		engine: tx.NewEngine(ledger, cfg, tx.WithLogger(zap.NewNop())),
		clock:  NewManualClock(),
		config: cfg,
	}
}

// Submit applies a transaction and returns its result. Transactions are
// verified like any other; use the builders, which sign, or SignAs.
//
// An update without a sequence gets the feed's current one and is signed
// again by whoever signed it. An update that already carries a sequence is
// submitted as is, so resubmitting a result replays it.
func (e *TestEnv) Submit(txn tx.Transaction) TxResult {
	e.t.Helper()
	if txn.TxType().IsSequenced() && txn.GetCommon().Sequence == 0 {
		e.fillSequence(txn, e.sequenceOf(txn.GetCommon().DataFeed))
	}
	return newTxResult(e.engine.Apply(context.Background(), txn))
}

// ApplyAll applies a batch through the engine and returns results in
// submission order. Missing sequences are filled per feed in batch order,
// as if every earlier update in the batch succeeds.
func (e *TestEnv) ApplyAll(txns ...tx.Transaction) []TxResult {
	e.t.Helper()
	next := make(map[solana.PublicKey]uint32)
	for _, txn := range txns {
		addr := txn.GetCommon().DataFeed
		if _, ok := next[addr]; !ok {
			next[addr] = e.sequenceOf(addr)
		}
		if txn.TxType().IsSequenced() {
			if seq := txn.GetCommon().Sequence; seq != 0 {
				next[addr] = seq
			}
			e.fillSequence(txn, next[addr])
			next[addr]++
		}
	}
	applied, err := e.engine.ApplyAll(context.Background(), txns)
	if err != nil {
		e.t.Fatalf("ApplyAll: %v", err)
	}
	results := make([]TxResult, len(applied))
	for i, r := range applied {
		results[i] = newTxResult(r)
	}
	return results
}

// Sequence returns the sequence the next update of addr must carry.
func (e *TestEnv) Sequence(addr solana.PublicKey) uint32 {
	e.t.Helper()
	feed := e.DataFeed(addr)
	if feed == nil {
		e.t.Fatalf("No data feed at %s", addr)
	}
	return feed.Sequence
}

// sequenceOf is the sequence of addr, or the initial one when no feed can
// be loaded there. The engine reports the load failure itself.
func (e *TestEnv) sequenceOf(addr solana.PublicKey) uint32 {
	if feed, err := e.engine.DataFeed(addr); err == nil {
		return feed.Sequence
	}
	return entries.InitialSequence
}

func (e *TestEnv) fillSequence(txn tx.Transaction, seq uint32) {
	common := txn.GetCommon()
	if !txn.TxType().IsSequenced() || common.Sequence != 0 {
		return
	}
	signer := signerOf(common.Signature)
	common.Sequence = seq
	if signer != nil {
		SignAs(txn, signer)
	}
}

// Feed returns the data feed address of (owner, feedID).
func (e *TestEnv) Feed(owner *Account, feedID uint16) solana.PublicKey {
	e.t.Helper()
	k, err := e.engine.Derive(owner.PublicKey, feedID)
	if err != nil {
		e.t.Fatalf("Failed to derive feed %d of %s: %v", feedID, owner, err)
	}
	return k.Key
}

// Init initializes feed feedID of owner and fails the test unless it succeeds.
func (e *TestEnv) Init(owner *Account, feedID uint16) solana.PublicKey {
	e.t.Helper()
	addr := e.Feed(owner, feedID)
	txn := oracle.NewInitialize(owner.PublicKey, addr, feedID)
	result := e.Submit(SignAs(txn, owner))
	if !result.Success {
		e.t.Fatalf("Failed to initialize feed %d of %s: %s", feedID, owner, result.Code)
	}
	return addr
}

// DataFeed returns the committed account at addr, or nil when absent. Other
// load failures fail the test.
func (e *TestEnv) DataFeed(addr solana.PublicKey) *entries.DataFeed {
	e.t.Helper()
	feed, err := e.engine.DataFeed(addr)
	if err != nil {
		if tx.ResultOf(err) == tx.TecNO_ENTRY {
			return nil
		}
		e.t.Fatalf("Failed to load data feed %s: %v", addr, err)
	}
	return feed
}

// Exists reports whether an account is stored at addr.
func (e *TestEnv) Exists(addr solana.PublicKey) bool {
	e.t.Helper()
	ok, err := e.ledger.Exists(keylet.At(addr))
	if err != nil {
		e.t.Fatalf("Failed to check %s: %v", addr, err)
	}
	return ok
}

// Raw returns the stored bytes at addr.
func (e *TestEnv) Raw(addr solana.PublicKey) []byte {
	e.t.Helper()
	data, err := e.ledger.Read(keylet.At(addr))
	if err != nil {
		e.t.Fatalf("Failed to read %s: %v", addr, err)
	}
	return data
}

// WriteRaw stores data at addr directly, bypassing the engine.
func (e *TestEnv) WriteRaw(addr solana.PublicKey, data []byte) {
	e.t.Helper()
	k := keylet.At(addr)
	var err error
	if e.Exists(addr) {
		err = e.ledger.Update(k, data)
	} else {
		err = e.ledger.Insert(k, data)
	}
	if err != nil {
		e.t.Fatalf("Failed to write %s: %v", addr, err)
	}
}

// Pull reads addr through a consumer program with identity program.
func (e *TestEnv) Pull(program solana.PublicKey, addr solana.PublicKey) (pull.Reading, error) {
	consumer := pull.NewConsumer(program, e.engine, zap.NewNop())
	return consumer.PullOracle(context.Background(), solana.PublicKey{}, addr)
}

// Engine returns the engine transactions are applied with.
func (e *TestEnv) Engine() *tx.Engine {
	return e.engine
}

// Ledger returns the committed state.
func (e *TestEnv) Ledger() *state.Ledger {
	return e.ledger
}

// ProgramID returns the program feed addresses derive under.
func (e *TestEnv) ProgramID() solana.PublicKey {
	return e.config.ProgramID
}

// Now returns the current test time.
func (e *TestEnv) Now() time.Time {
	return e.clock.Now()
}

// Timestamp returns the current test time in unix seconds.
func (e *TestEnv) Timestamp() int64 {
	return e.clock.Timestamp()
}

// AdvanceTime moves the test clock by d.
func (e *TestEnv) AdvanceTime(d time.Duration) {
	e.clock.Advance(d)
}

// SetTime sets the test clock.
func (e *TestEnv) SetTime(t time.Time) {
	e.clock.Set(t)
}
