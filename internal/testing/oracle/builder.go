// Package oracle provides fluent builders for data feed transactions.
package oracle

import (
	"github.com/LeJamon/goOracled/internal/core/ledger/entry"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/LeJamon/goOracled/internal/core/tx/oracle"
	"github.com/LeJamon/goOracled/internal/testing"
	"github.com/gagliardetto/solana-go"
)

// DefaultTimestamp returns the env clock as a unix timestamp.
func DefaultTimestamp(env *testing.TestEnv) int64 {
	return env.Timestamp()
}

// signing holds who signs a built transaction. A zero sequence is left for
// TestEnv.Submit to fill in.
type signing struct {
	signer   *testing.Account
	signWith *testing.Account
	unsigned bool
	sequence uint32
}

func (s *signing) finish(t tx.Transaction) tx.Transaction {
	t.GetCommon().Sequence = s.sequence
	if s.unsigned {
		return t
	}
	key := s.signer
	if s.signWith != nil {
		key = s.signWith
	}
	return testing.SignAs(t, key)
}

// InitializeBuilder builds Initialize transactions.
type InitializeBuilder struct {
	signing
	feed   solana.PublicKey
	feedID uint16
}

// Initialize creates a builder initializing feedID of owner at feed.
func Initialize(owner *testing.Account, feed solana.PublicKey, feedID uint16) *InitializeBuilder {
	return &InitializeBuilder{signing: signing{signer: owner}, feed: feed, feedID: feedID}
}

// Build returns the signed transaction.
func (b *InitializeBuilder) Build() tx.Transaction {
	return b.finish(oracle.NewInitialize(b.signer.PublicKey, b.feed, b.feedID))
}

// SetValueBuilder provides a fluent interface for building SetValue transactions.
type SetValueBuilder struct {
	signing
	feed      solana.PublicKey
	value     int64
	timestamp int64
	label     string
}

// SetValue creates a builder publishing value to feed.
func SetValue(signer *testing.Account, feed solana.PublicKey, value int64) *SetValueBuilder {
	return &SetValueBuilder{signing: signing{signer: signer}, feed: feed, value: value}
}

// Timestamp sets the unix timestamp of the value.
func (b *SetValueBuilder) Timestamp(ts int64) *SetValueBuilder {
	b.timestamp = ts
	return b
}

// Label sets the source label.
func (b *SetValueBuilder) Label(label string) *SetValueBuilder {
	b.label = label
	return b
}

// SignedBy signs with acc's key while keeping the signer field.
func (b *SetValueBuilder) SignedBy(acc *testing.Account) *SetValueBuilder {
	b.signWith = acc
	return b
}

// Unsigned leaves the signature empty.
func (b *SetValueBuilder) Unsigned() *SetValueBuilder {
	b.unsigned = true
	return b
}

// Sequence signs over seq instead of the feed's sequence at submission.
func (b *SetValueBuilder) Sequence(seq uint32) *SetValueBuilder {
	b.sequence = seq
	return b
}

// Build returns the transaction.
func (b *SetValueBuilder) Build() tx.Transaction {
	return b.finish(oracle.NewSetValue(b.signer.PublicKey, b.feed, b.value, b.timestamp, b.label))
}

// SetLicenseBuilder builds SetLicense transactions.
type SetLicenseBuilder struct {
	signing
	feed    solana.PublicKey
	license entry.License
}

// SetLicense creates a builder changing the license of feed.
func SetLicense(signer *testing.Account, feed solana.PublicKey, license entry.License) *SetLicenseBuilder {
	return &SetLicenseBuilder{signing: signing{signer: signer}, feed: feed, license: license}
}

// Sequence signs over seq instead of the feed's sequence at submission.
func (b *SetLicenseBuilder) Sequence(seq uint32) *SetLicenseBuilder {
	b.sequence = seq
	return b
}

// Build returns the signed transaction.
func (b *SetLicenseBuilder) Build() tx.Transaction {
	return b.finish(oracle.NewSetLicense(b.signer.PublicKey, b.feed, b.license))
}

// SubscriptionBuilder builds AddSubscription and RevokeSubscription transactions.
type SubscriptionBuilder struct {
	signing
	feed       solana.PublicKey
	subscriber solana.PublicKey
	revoke     bool
}

// Subscribe creates a builder adding subscriber to feed.
func Subscribe(signer *testing.Account, feed, subscriber solana.PublicKey) *SubscriptionBuilder {
	return &SubscriptionBuilder{signing: signing{signer: signer}, feed: feed, subscriber: subscriber}
}

// Revoke creates a builder removing subscriber from feed.
func Revoke(signer *testing.Account, feed, subscriber solana.PublicKey) *SubscriptionBuilder {
	b := Subscribe(signer, feed, subscriber)
	b.revoke = true
	return b
}

// Sequence signs over seq instead of the feed's sequence at submission.
func (b *SubscriptionBuilder) Sequence(seq uint32) *SubscriptionBuilder {
	b.sequence = seq
	return b
}

// Build returns the signed transaction.
func (b *SubscriptionBuilder) Build() tx.Transaction {
	if b.revoke {
		return b.finish(oracle.NewRevokeSubscription(b.signer.PublicKey, b.feed, b.subscriber))
	}
	return b.finish(oracle.NewAddSubscription(b.signer.PublicKey, b.feed, b.subscriber))
}

// SetAuditor creates a signed SetAuditor transaction.
func SetAuditor(signer *testing.Account, feed, auditor solana.PublicKey) tx.Transaction {
	return testing.SignAs(oracle.NewSetAuditor(signer.PublicKey, feed, auditor), signer)
}

// SetLimit creates a signed SetLimit transaction.
func SetLimit(signer *testing.Account, feed solana.PublicKey, minValue, maxValue int64) tx.Transaction {
	return testing.SignAs(oracle.NewSetLimit(signer.PublicKey, feed, minValue, maxValue), signer)
}

// GetDataFeed creates a signed read of feed by reader.
func GetDataFeed(reader *testing.Account, feed solana.PublicKey) tx.Transaction {
	return testing.SignAs(oracle.NewGetDataFeed(reader.PublicKey, feed), reader)
}
