// Package auth decides whether a caller may perform an operation on a data
// feed account. It is pure: it reads the account and never mutates it.
package auth

import (
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/ledger/entry/entries"
	"github.com/gagliardetto/solana-go"
)

// Operation is an action on a data feed that needs authorization.
type Operation uint8

const (
	OpInitialize Operation = iota
	OpSetValue
	OpSetLicense
	OpAddSubscription
	OpRevokeSubscription
	OpSetAuditor
	OpSetLimit
	OpRead
)

var operationNames = map[Operation]string{
	OpInitialize:         "initialize",
	OpSetValue:           "setValue",
	OpSetLicense:         "setLicense",
	OpAddSubscription:    "addSubscription",
	OpRevokeSubscription: "revokeSubscription",
	OpSetAuditor:         "setAuditor",
	OpSetLimit:           "setLimit",
	OpRead:               "read",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operation(%d)", uint8(o))
}

// Decision is the outcome of an authorization check.
type Decision uint8

const (
	// Allow grants the operation.
	Allow Decision = iota
	// DenyNotOwner rejects a mutation by someone other than the permitted writer.
	DenyNotOwner
	// DenySubscriptionRequired rejects a read of a private feed by a non-subscriber.
	DenySubscriptionRequired
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyNotOwner:
		return "deny: not owner"
	case DenySubscriptionRequired:
		return "deny: subscription required"
	default:
		return fmt.Sprintf("Decision(%d)", uint8(d))
	}
}

// Allowed reports whether d grants the operation.
func (d Decision) Allowed() bool {
	return d == Allow
}

// Authorize evaluates the rules for op, in order:
//
//  1. initialize is always allowed; the store rejects occupied addresses.
//  2. value, license, subscription and auditor changes are owner only.
//  3. limit changes are allowed to the owner or the configured auditor.
//  4. reads are allowed when the license is public or caller is a subscriber.
//
// The owner is not implicitly a reader of a private feed. For any operation
// other than initialize, a nil feed is denied.
func Authorize(caller solana.PublicKey, feed *entries.DataFeed, op Operation) Decision {
	if op == OpInitialize {
		return Allow
	}
	if feed == nil {
		if op == OpRead {
			return DenySubscriptionRequired
		}
		return DenyNotOwner
	}

	switch op {
	case OpSetValue, OpSetLicense, OpAddSubscription, OpRevokeSubscription, OpSetAuditor:
		if caller.Equals(feed.Owner) {
			return Allow
		}
		return DenyNotOwner

	case OpSetLimit:
		if caller.Equals(feed.Owner) || (feed.HasAuditor() && caller.Equals(feed.Auditor)) {
			return Allow
		}
		return DenyNotOwner

	case OpRead:
		if !feed.License.RequiresSubscription() || feed.IsSubscriber(caller) {
			return Allow
		}
		return DenySubscriptionRequired
	}

	return DenyNotOwner
}
