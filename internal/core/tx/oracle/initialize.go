package oracle

import (
	"github.com/LeJamon/goOracled/internal/core/auth"
	"github.com/LeJamon/goOracled/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goOracled/internal/core/ledger/keylet"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

func init() {
	tx.Register(tx.TypeInitialize, func() tx.Transaction {
		return &Initialize{BaseTx: *tx.NewBaseTx(tx.TypeInitialize, solana.PublicKey{}, solana.PublicKey{})}
	})
}

// Initialize creates the data feed account of (Signer, FeedID). The new
// account starts with value zero, an empty label, a Private license and no
// subscribers.
type Initialize struct {
	tx.BaseTx

	// FeedID identifies the feed among the signer's feeds (required)
	FeedID uint16 `json:"FeedID"`
}

type initializeArgs struct {
	FeedID uint16
}

// NewInitialize creates a new Initialize transaction
func NewInitialize(owner, dataFeed solana.PublicKey, feedID uint16) *Initialize {
	return &Initialize{
		BaseTx: *tx.NewBaseTx(tx.TypeInitialize, owner, dataFeed),
		FeedID: feedID,
	}
}

// TxType returns the transaction type
func (i *Initialize) TxType() tx.Type {
	return tx.TypeInitialize
}

// InstructionArgs returns the signed arguments
func (i *Initialize) InstructionArgs() any {
	return &initializeArgs{FeedID: i.FeedID}
}

// Apply creates the account. The supplied address must be the one derived
// from the signer and feed id.
func (i *Initialize) Apply(ctx *tx.ApplyContext) tx.Result {
	if r := ctx.Authorize(nil, auth.OpInitialize); !r.IsSuccess() {
		return r
	}

	k, err := keylet.DataFeed(ctx.Config.ProgramID, ctx.Signer, i.FeedID)
	if err != nil {
		ctx.Log.Error("derive data feed address", zap.Error(err))
		return tx.TefINTERNAL
	}
	if !k.Key.Equals(ctx.Feed.Key) {
		ctx.Log.Debug("initialize address mismatch",
			zap.Stringer("expected", k.Key),
			zap.Uint16("feed_id", i.FeedID),
		)
		return tx.TefBAD_ADDRESS
	}

	feed := entries.NewDataFeed(ctx.Signer, i.FeedID, k.Bump)
	if r := ctx.CreateFeed(k, feed); !r.IsSuccess() {
		return r
	}

	ctx.Log.Info("initialized data feed",
		zap.Stringer("owner", ctx.Signer),
		zap.Uint16("feed_id", i.FeedID),
		zap.Uint8("bump", k.Bump),
	)
	return tx.TesSUCCESS
}
