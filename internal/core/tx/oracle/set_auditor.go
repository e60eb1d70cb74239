package oracle

import (
	"github.com/LeJamon/goOracled/internal/core/auth"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

func init() {
	tx.Register(tx.TypeSetAuditor, func() tx.Transaction {
		return &SetAuditor{BaseTx: *tx.NewBaseTx(tx.TypeSetAuditor, solana.PublicKey{}, solana.PublicKey{})}
	})
}

// SetAuditor assigns the identity allowed to change the value limit along
// with the owner. A zero Auditor clears it.
type SetAuditor struct {
	tx.BaseTx

	Auditor solana.PublicKey `json:"Auditor"`
}

type setAuditorArgs struct {
	Auditor solana.PublicKey
}

// NewSetAuditor creates a new SetAuditor transaction
func NewSetAuditor(owner, dataFeed, auditor solana.PublicKey) *SetAuditor {
	return &SetAuditor{
		BaseTx:  *tx.NewBaseTx(tx.TypeSetAuditor, owner, dataFeed),
		Auditor: auditor,
	}
}

// TxType returns the transaction type
func (s *SetAuditor) TxType() tx.Type {
	return tx.TypeSetAuditor
}

// InstructionArgs returns the signed arguments
func (s *SetAuditor) InstructionArgs() any {
	return &setAuditorArgs{Auditor: s.Auditor}
}

// Apply stores the auditor.
func (s *SetAuditor) Apply(ctx *tx.ApplyContext) tx.Result {
	feed, r := ctx.LoadFeed()
	if !r.IsSuccess() {
		return r
	}
	if r := ctx.Authorize(feed, auth.OpSetAuditor); !r.IsSuccess() {
		return r
	}

	feed.Auditor = s.Auditor
	if r := ctx.StoreFeed(feed); !r.IsSuccess() {
		return r
	}

	ctx.Log.Info("auditor set", zap.Stringer("auditor", s.Auditor))
	return tx.TesSUCCESS
}
