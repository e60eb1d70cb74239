package oracle

import (
	"github.com/LeJamon/goOracled/internal/core/auth"
	"github.com/LeJamon/goOracled/internal/core/pull"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/gagliardetto/solana-go"
)

func init() {
	tx.Register(tx.TypeGetDataFeed, func() tx.Transaction {
		return &GetDataFeed{BaseTx: *tx.NewBaseTx(tx.TypeGetDataFeed, solana.PublicKey{}, solana.PublicKey{})}
	})
}

// GetDataFeed is a signed direct read. The signer must pass the same read
// rule as a pulling program.
type GetDataFeed struct {
	tx.BaseTx
}

type getDataFeedArgs struct{}

// NewGetDataFeed creates a new GetDataFeed transaction
func NewGetDataFeed(reader, dataFeed solana.PublicKey) *GetDataFeed {
	return &GetDataFeed{BaseTx: *tx.NewBaseTx(tx.TypeGetDataFeed, reader, dataFeed)}
}

// TxType returns the transaction type
func (g *GetDataFeed) TxType() tx.Type {
	return tx.TypeGetDataFeed
}

// InstructionArgs returns the signed arguments
func (g *GetDataFeed) InstructionArgs() any {
	return &getDataFeedArgs{}
}

// Apply returns the reading through ctx.Reading.
func (g *GetDataFeed) Apply(ctx *tx.ApplyContext) tx.Result {
	feed, r := ctx.LoadFeed()
	if !r.IsSuccess() {
		return r
	}
	if r := ctx.Authorize(feed, auth.OpRead); !r.IsSuccess() {
		return r
	}

	ctx.Reading = &pull.Reading{
		Value:     feed.Value,
		Timestamp: feed.Timestamp,
		License:   feed.License,
	}
	return tx.TesSUCCESS
}
