package tx

import (
	"math"

	"github.com/LeJamon/goOracled/internal/core/auth"
	"github.com/LeJamon/goOracled/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goOracled/internal/core/ledger/keylet"
	"github.com/LeJamon/goOracled/internal/core/pull"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// ApplyContext provides all the state and helpers needed to apply a transaction.
// It is passed to Transaction.Apply() instead of individual parameters.
type ApplyContext struct {
	// View provides read/write access to ledger state (the ApplyStateTable)
	View LedgerView

	// Signer is the verified identity that signed the transaction
	Signer solana.PublicKey

	// Feed is the keylet of the targeted data feed account
	Feed keylet.Keylet

	// Sequence is the signed sequence of an update, zero otherwise
	Sequence uint32

	// Config holds engine configuration
	Config EngineConfig

	// Log is scoped to the transaction being applied
	Log *zap.Logger

	// Reading is set by read-only transactions
	Reading *pull.Reading
}

// LoadFeed reads and validates the targeted data feed account.
func (ctx *ApplyContext) LoadFeed() (*entries.DataFeed, Result) {
	feed, err := LoadDataFeed(ctx.View, ctx.Config.ProgramID, ctx.Feed.Key)
	if err != nil {
		ctx.Log.Debug("load data feed failed", zap.Error(err))
		return nil, ResultOf(err)
	}
	ctx.Feed.Bump = feed.Bump
	return feed, TesSUCCESS
}

// CheckSequence compares the signed sequence with the feed's. A missing
// feed is reported the same way LoadFeed reports it.
func (ctx *ApplyContext) CheckSequence() Result {
	feed, r := ctx.LoadFeed()
	if !r.IsSuccess() {
		return r
	}
	switch {
	case ctx.Sequence < feed.Sequence:
		ctx.Log.Debug("sequence already used",
			zap.Uint32("sequence", ctx.Sequence),
			zap.Uint32("feed_sequence", feed.Sequence),
		)
		return TefPAST_SEQ
	case ctx.Sequence > feed.Sequence:
		return TerPRE_SEQ
	}
	return TesSUCCESS
}

// ConsumeSequence advances the feed's sequence past the applied update.
// It runs after the update and so sees the account as the update left it.
func (ctx *ApplyContext) ConsumeSequence() Result {
	feed, r := ctx.LoadFeed()
	if !r.IsSuccess() {
		return r
	}
	if feed.Sequence == math.MaxUint32 {
		ctx.Log.Error("data feed sequence exhausted")
		return TefINTERNAL
	}
	feed.Sequence++
	return ctx.StoreFeed(feed)
}

// StoreFeed writes back a modified data feed account.
func (ctx *ApplyContext) StoreFeed(feed *entries.DataFeed) Result {
	if err := StoreDataFeed(ctx.View, ctx.Feed, feed); err != nil {
		ctx.Log.Error("store data feed failed", zap.Error(err))
		return ResultOf(err)
	}
	return TesSUCCESS
}

// CreateFeed inserts a new data feed account at k.
func (ctx *ApplyContext) CreateFeed(k keylet.Keylet, feed *entries.DataFeed) Result {
	if err := CreateDataFeed(ctx.View, k, feed); err != nil {
		ctx.Log.Debug("create data feed failed", zap.Error(err))
		return ResultOf(err)
	}
	return TesSUCCESS
}

// Authorize checks whether the signer may perform op on feed.
func (ctx *ApplyContext) Authorize(feed *entries.DataFeed, op auth.Operation) Result {
	return DecisionResult(auth.Authorize(ctx.Signer, feed, op))
}

// DecisionResult maps an authorization decision to a Result.
func DecisionResult(d auth.Decision) Result {
	switch d {
	case auth.Allow:
		return TesSUCCESS
	case auth.DenySubscriptionRequired:
		return TecSUBSCRIPTION_REQUIRED
	default:
		return TecNO_PERMISSION
	}
}
