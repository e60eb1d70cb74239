package oracle

import (
	"github.com/LeJamon/goOracled/internal/core/auth"
	"github.com/LeJamon/goOracled/internal/core/ledger/entry"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

func init() {
	tx.Register(tx.TypeSetLicense, func() tx.Transaction {
		return &SetLicense{BaseTx: *tx.NewBaseTx(tx.TypeSetLicense, solana.PublicKey{}, solana.PublicKey{})}
	})
}

// SetLicense changes the read policy of a data feed.
type SetLicense struct {
	tx.BaseTx

	License entry.License `json:"License"`
}

type setLicenseArgs struct {
	License uint8
}

// NewSetLicense creates a new SetLicense transaction
func NewSetLicense(owner, dataFeed solana.PublicKey, license entry.License) *SetLicense {
	return &SetLicense{
		BaseTx:  *tx.NewBaseTx(tx.TypeSetLicense, owner, dataFeed),
		License: license,
	}
}

// TxType returns the transaction type
func (s *SetLicense) TxType() tx.Type {
	return tx.TypeSetLicense
}

// Validate validates the SetLicense transaction (preflight validation)
func (s *SetLicense) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if !s.License.Valid() {
		return tx.Errorf(tx.TemBAD_LICENSE, "license %d", uint8(s.License))
	}
	return nil
}

// InstructionArgs returns the signed arguments
func (s *SetLicense) InstructionArgs() any {
	return &setLicenseArgs{License: uint8(s.License)}
}

// Apply sets the license.
func (s *SetLicense) Apply(ctx *tx.ApplyContext) tx.Result {
	feed, r := ctx.LoadFeed()
	if !r.IsSuccess() {
		return r
	}
	if r := ctx.Authorize(feed, auth.OpSetLicense); !r.IsSuccess() {
		return r
	}

	feed.License = s.License
	if r := ctx.StoreFeed(feed); !r.IsSuccess() {
		return r
	}

	ctx.Log.Info("license set", zap.Stringer("license", s.License))
	return tx.TesSUCCESS
}
