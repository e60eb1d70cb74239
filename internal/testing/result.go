package testing

import (
	"github.com/LeJamon/goOracled/internal/core/pull"
	"github.com/LeJamon/goOracled/internal/core/tx"
)

// TxResult represents the result of applying a transaction.
type TxResult struct {
	// Result is the engine result code.
	Result tx.Result

	// Code is the result name (e.g., "tesSUCCESS").
	Code string

	// Success indicates whether the transaction was successfully applied.
	Success bool

	// Applied is true when ledger state changed.
	Applied bool

	// Message provides additional details about the result.
	Message string

	// Metadata contains the committed changes, if any.
	Metadata *tx.Metadata

	// Reading is set by a successful GetDataFeed.
	Reading *pull.Reading
}

func newTxResult(r tx.ApplyResult) TxResult {
	return TxResult{
		Result:   r.Result,
		Code:     r.Result.String(),
		Success:  r.Result.IsSuccess(),
		Applied:  r.Applied,
		Message:  r.Message,
		Metadata: r.Metadata,
		Reading:  r.Reading,
	}
}

// IsSuccess returns true if the result code indicates success.
func (r TxResult) IsSuccess() bool {
	return r.Success
}

// IsClaimed returns true for tec codes: well formed but rejected by ledger state.
func (r TxResult) IsClaimed() bool {
	return r.Result.IsTec()
}

// IsMalformed returns true if the result code indicates the transaction is malformed.
func (r TxResult) IsMalformed() bool {
	return r.Result.IsTem()
}

// IsRetry returns true for ter codes, which may succeed once earlier
// updates apply.
func (r TxResult) IsRetry() bool {
	return r.Result.IsTer()
}

// IsFailed returns true for tef codes.
func (r TxResult) IsFailed() bool {
	return r.Result.IsTef()
}
