package entries

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/ledger/entry"
	"github.com/gagliardetto/solana-go"
)

const (
	// MaxSubscribers bounds the subscriber set of a single feed account.
	MaxSubscribers = 32
	// MaxSourceLabelLength is the maximum byte length of a source label.
	MaxSourceLabelLength = 64
)

// InitialSequence is the sequence of a newly initialized feed.
const InitialSequence uint32 = 1

var (
	ErrZeroOwner           = errors.New("data feed owner is required")
	ErrSourceLabelTooLong  = fmt.Errorf("source label exceeds %d bytes", MaxSourceLabelLength)
	ErrTooManySubscribers  = fmt.Errorf("subscriber set exceeds %d entries", MaxSubscribers)
	ErrDuplicateSubscriber = errors.New("duplicate subscriber")
	ErrInvalidLicense      = errors.New("invalid license")
	ErrInvalidLimit        = errors.New("limit minimum is greater than maximum")
	ErrZeroSequence        = errors.New("data feed sequence is zero")
)

// DataFeed is a single data feed account owned by one identity.
// The account address is derived from (Owner, FeedID) and Bump.
type DataFeed struct {
	Owner       solana.PublicKey
	FeedID      uint16
	Bump        uint8
	Value       int64
	Timestamp   int64 // writer supplied, unix seconds
	SourceLabel string
	License     entry.License
	Subscribers []solana.PublicKey

	// Optional fields
	Auditor solana.PublicKey // zero when none
	Min     int64
	Max     int64 // Min == Max == 0 disables the range check

	// Sequence is the sequence the next update must carry. Every applied
	// update increments it.
	Sequence uint32
}

// NewDataFeed returns a freshly initialized feed: value zero, empty label,
// Private license and no subscribers.
func NewDataFeed(owner solana.PublicKey, feedID uint16, bump uint8) *DataFeed {
	return &DataFeed{
		Owner:    owner,
		FeedID:   feedID,
		Bump:     bump,
		License:  entry.LicensePrivate,
		Sequence: InitialSequence,
	}
}

// Type returns the ledger entry type
func (f *DataFeed) Type() entry.Type {
	return entry.TypeDataFeed
}

// Validate checks the structural invariants of the account.
func (f *DataFeed) Validate() error {
	if f.Owner.IsZero() {
		return ErrZeroOwner
	}
	if len(f.SourceLabel) > MaxSourceLabelLength {
		return ErrSourceLabelTooLong
	}
	if !f.License.Valid() {
		return ErrInvalidLicense
	}
	if len(f.Subscribers) > MaxSubscribers {
		return ErrTooManySubscribers
	}
	seen := make(map[solana.PublicKey]struct{}, len(f.Subscribers))
	for _, s := range f.Subscribers {
		if _, dup := seen[s]; dup {
			return ErrDuplicateSubscriber
		}
		seen[s] = struct{}{}
	}
	if f.Min > f.Max {
		return ErrInvalidLimit
	}
	if f.Sequence == 0 {
		return ErrZeroSequence
	}
	return nil
}

// IsSubscriber reports whether id is in the subscriber set.
func (f *DataFeed) IsSubscriber(id solana.PublicKey) bool {
	for _, s := range f.Subscribers {
		if s.Equals(id) {
			return true
		}
	}
	return false
}

// AddSubscriber inserts id into the subscriber set. It reports false when
// id was already present; the set is left unchanged in that case.
func (f *DataFeed) AddSubscriber(id solana.PublicKey) bool {
	if f.IsSubscriber(id) {
		return false
	}
	f.Subscribers = append(f.Subscribers, id)
	return true
}

// RemoveSubscriber deletes id from the subscriber set, preserving the order
// of the remaining members. It reports whether id was present.
func (f *DataFeed) RemoveSubscriber(id solana.PublicKey) bool {
	for i, s := range f.Subscribers {
		if s.Equals(id) {
			f.Subscribers = append(f.Subscribers[:i:i], f.Subscribers[i+1:]...)
			return true
		}
	}
	return false
}

// HasAuditor reports whether an auditor identity is configured.
func (f *DataFeed) HasAuditor() bool {
	return !f.Auditor.IsZero()
}

// HasLimit reports whether the range check on values is enabled.
func (f *DataFeed) HasLimit() bool {
	return f.Min != 0 || f.Max != 0
}

// InRange reports whether v satisfies the configured limit.
func (f *DataFeed) InRange(v int64) bool {
	if !f.HasLimit() {
		return true
	}
	return v >= f.Min && v <= f.Max
}

// Clone returns a deep copy of the account.
func (f *DataFeed) Clone() *DataFeed {
	c := *f
	if f.Subscribers != nil {
		c.Subscribers = make([]solana.PublicKey, len(f.Subscribers))
		copy(c.Subscribers, f.Subscribers)
	}
	return &c
}
