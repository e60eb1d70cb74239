package oracle

import (
	"github.com/LeJamon/goOracled/internal/core/auth"
	"github.com/LeJamon/goOracled/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

func init() {
	tx.Register(tx.TypeSetValue, func() tx.Transaction {
		return &SetValue{BaseTx: *tx.NewBaseTx(tx.TypeSetValue, solana.PublicKey{}, solana.PublicKey{})}
	})
}

// SetValue publishes a new reading. Value, timestamp and label are replaced
// together.
type SetValue struct {
	tx.BaseTx

	Value int64 `json:"Value"`

	// Timestamp is writer supplied, in unix seconds
	Timestamp int64 `json:"Timestamp"`

	// SourceLabel is an advisory description of the data source
	SourceLabel string `json:"SourceLabel"`
}

type setValueArgs struct {
	Value       int64
	Timestamp   int64
	SourceLabel string
}

// NewSetValue creates a new SetValue transaction
func NewSetValue(owner, dataFeed solana.PublicKey, value, timestamp int64, label string) *SetValue {
	return &SetValue{
		BaseTx:      *tx.NewBaseTx(tx.TypeSetValue, owner, dataFeed),
		Value:       value,
		Timestamp:   timestamp,
		SourceLabel: label,
	}
}

// TxType returns the transaction type
func (s *SetValue) TxType() tx.Type {
	return tx.TypeSetValue
}

// Validate validates the SetValue transaction (preflight validation)
func (s *SetValue) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if len(s.SourceLabel) > entries.MaxSourceLabelLength {
		return tx.Errorf(tx.TemMALFORMED, "SourceLabel is %d bytes, max %d",
			len(s.SourceLabel), entries.MaxSourceLabelLength)
	}
	return nil
}

// InstructionArgs returns the signed arguments
func (s *SetValue) InstructionArgs() any {
	return &setValueArgs{Value: s.Value, Timestamp: s.Timestamp, SourceLabel: s.SourceLabel}
}

// Apply stores the reading.
func (s *SetValue) Apply(ctx *tx.ApplyContext) tx.Result {
	feed, r := ctx.LoadFeed()
	if !r.IsSuccess() {
		return r
	}
	if r := ctx.Authorize(feed, auth.OpSetValue); !r.IsSuccess() {
		return r
	}

	if !feed.InRange(s.Value) {
		ctx.Log.Debug("value out of range",
			zap.Int64("value", s.Value),
			zap.Int64("min", feed.Min),
			zap.Int64("max", feed.Max),
		)
		return tx.TecVALUE_OUT_OF_RANGE
	}
	if ctx.Config.RejectStaleTimestamps && s.Timestamp < feed.Timestamp {
		return tx.TecSTALE_TIMESTAMP
	}

	feed.Value = s.Value
	feed.Timestamp = s.Timestamp
	feed.SourceLabel = s.SourceLabel
	if r := ctx.StoreFeed(feed); !r.IsSuccess() {
		return r
	}

	ctx.Log.Info("new value",
		zap.Int64("value", s.Value),
		zap.Int64("timestamp", s.Timestamp),
		zap.String("source", s.SourceLabel),
	)
	return tx.TesSUCCESS
}
