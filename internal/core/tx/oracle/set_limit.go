package oracle

import (
	"github.com/LeJamon/goOracled/internal/core/auth"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

func init() {
	tx.Register(tx.TypeSetLimit, func() tx.Transaction {
		return &SetLimit{BaseTx: *tx.NewBaseTx(tx.TypeSetLimit, solana.PublicKey{}, solana.PublicKey{})}
	})
}

// SetLimit configures the inclusive range new values must fall in.
// Min == Max == 0 disables the check.
type SetLimit struct {
	tx.BaseTx

	Min int64 `json:"Min"`
	Max int64 `json:"Max"`
}

type setLimitArgs struct {
	Min int64
	Max int64
}

// NewSetLimit creates a new SetLimit transaction
func NewSetLimit(signer, dataFeed solana.PublicKey, minValue, maxValue int64) *SetLimit {
	return &SetLimit{
		BaseTx: *tx.NewBaseTx(tx.TypeSetLimit, signer, dataFeed),
		Min:    minValue,
		Max:    maxValue,
	}
}

// TxType returns the transaction type
func (s *SetLimit) TxType() tx.Type {
	return tx.TypeSetLimit
}

// Validate validates the SetLimit transaction (preflight validation)
func (s *SetLimit) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if s.Min > s.Max {
		return tx.Errorf(tx.TemBAD_LIMIT, "min %d > max %d", s.Min, s.Max)
	}
	return nil
}

// InstructionArgs returns the signed arguments
func (s *SetLimit) InstructionArgs() any {
	return &setLimitArgs{Min: s.Min, Max: s.Max}
}

// Apply stores the limit. The owner and the auditor may both call it.
func (s *SetLimit) Apply(ctx *tx.ApplyContext) tx.Result {
	feed, r := ctx.LoadFeed()
	if !r.IsSuccess() {
		return r
	}
	if r := ctx.Authorize(feed, auth.OpSetLimit); !r.IsSuccess() {
		return r
	}

	feed.Min = s.Min
	feed.Max = s.Max
	if r := ctx.StoreFeed(feed); !r.IsSuccess() {
		return r
	}

	ctx.Log.Info("limit set",
		zap.Int64("min", s.Min),
		zap.Int64("max", s.Max),
		zap.Stringer("by", ctx.Signer),
	)
	return tx.TesSUCCESS
}
