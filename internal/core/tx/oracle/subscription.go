package oracle

import (
	"github.com/LeJamon/goOracled/internal/core/auth"
	"github.com/LeJamon/goOracled/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

func init() {
	tx.Register(tx.TypeAddSubscription, func() tx.Transaction {
		return &AddSubscription{BaseTx: *tx.NewBaseTx(tx.TypeAddSubscription, solana.PublicKey{}, solana.PublicKey{})}
	})
	tx.Register(tx.TypeRevokeSubscription, func() tx.Transaction {
		return &RevokeSubscription{BaseTx: *tx.NewBaseTx(tx.TypeRevokeSubscription, solana.PublicKey{}, solana.PublicKey{})}
	})
}

type subscriptionArgs struct {
	Subscriber solana.PublicKey
}

func validateSubscriber(subscriber solana.PublicKey) error {
	if subscriber.IsZero() {
		return tx.Errorf(tx.TemMALFORMED, "Subscriber is required")
	}
	return nil
}

// AddSubscription grants read access on a private feed.
type AddSubscription struct {
	tx.BaseTx

	// Subscriber is usually the program identity of a consumer
	Subscriber solana.PublicKey `json:"Subscriber"`
}

// NewAddSubscription creates a new AddSubscription transaction
func NewAddSubscription(owner, dataFeed, subscriber solana.PublicKey) *AddSubscription {
	return &AddSubscription{
		BaseTx:     *tx.NewBaseTx(tx.TypeAddSubscription, owner, dataFeed),
		Subscriber: subscriber,
	}
}

// TxType returns the transaction type
func (a *AddSubscription) TxType() tx.Type {
	return tx.TypeAddSubscription
}

// Validate validates the AddSubscription transaction (preflight validation)
func (a *AddSubscription) Validate() error {
	if err := a.BaseTx.Validate(); err != nil {
		return err
	}
	return validateSubscriber(a.Subscriber)
}

// InstructionArgs returns the signed arguments
func (a *AddSubscription) InstructionArgs() any {
	return &subscriptionArgs{Subscriber: a.Subscriber}
}

// Apply adds the subscriber. Adding an existing member succeeds without change.
func (a *AddSubscription) Apply(ctx *tx.ApplyContext) tx.Result {
	feed, r := ctx.LoadFeed()
	if !r.IsSuccess() {
		return r
	}
	if r := ctx.Authorize(feed, auth.OpAddSubscription); !r.IsSuccess() {
		return r
	}

	if feed.IsSubscriber(a.Subscriber) {
		ctx.Log.Debug("already subscribed", zap.Stringer("subscriber", a.Subscriber))
		return tx.TesSUCCESS
	}
	if len(feed.Subscribers) >= entries.MaxSubscribers {
		return tx.TecSUBSCRIBER_LIMIT
	}

	feed.AddSubscriber(a.Subscriber)
	if r := ctx.StoreFeed(feed); !r.IsSuccess() {
		return r
	}

	ctx.Log.Info("subscription added",
		zap.Stringer("subscriber", a.Subscriber),
		zap.Int("subscribers", len(feed.Subscribers)),
	)
	return tx.TesSUCCESS
}

// RevokeSubscription withdraws read access.
type RevokeSubscription struct {
	tx.BaseTx

	Subscriber solana.PublicKey `json:"Subscriber"`
}

// NewRevokeSubscription creates a new RevokeSubscription transaction
func NewRevokeSubscription(owner, dataFeed, subscriber solana.PublicKey) *RevokeSubscription {
	return &RevokeSubscription{
		BaseTx:     *tx.NewBaseTx(tx.TypeRevokeSubscription, owner, dataFeed),
		Subscriber: subscriber,
	}
}

// TxType returns the transaction type
func (r *RevokeSubscription) TxType() tx.Type {
	return tx.TypeRevokeSubscription
}

// Validate validates the RevokeSubscription transaction (preflight validation)
func (r *RevokeSubscription) Validate() error {
	if err := r.BaseTx.Validate(); err != nil {
		return err
	}
	return validateSubscriber(r.Subscriber)
}

// InstructionArgs returns the signed arguments
func (r *RevokeSubscription) InstructionArgs() any {
	return &subscriptionArgs{Subscriber: r.Subscriber}
}

// Apply removes the subscriber. Revoking a non-member succeeds without change.
func (r *RevokeSubscription) Apply(ctx *tx.ApplyContext) tx.Result {
	feed, res := ctx.LoadFeed()
	if !res.IsSuccess() {
		return res
	}
	if res := ctx.Authorize(feed, auth.OpRevokeSubscription); !res.IsSuccess() {
		return res
	}

	if !feed.RemoveSubscriber(r.Subscriber) {
		ctx.Log.Debug("not subscribed", zap.Stringer("subscriber", r.Subscriber))
		return tx.TesSUCCESS
	}
	if res := ctx.StoreFeed(feed); !res.IsSuccess() {
		return res
	}

	ctx.Log.Info("subscription revoked",
		zap.Stringer("subscriber", r.Subscriber),
		zap.Int("subscribers", len(feed.Subscribers)),
	)
	return tx.TesSUCCESS
}
