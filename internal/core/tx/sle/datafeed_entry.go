package sle

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/ledger/entry"
	"github.com/LeJamon/goOracled/internal/core/ledger/entry/entries"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// DiscriminatorLength is the size of the account type prefix.
const DiscriminatorLength = 8

var (
	ErrTruncated             = errors.New("sle: account data too short")
	ErrDiscriminatorMismatch = errors.New("sle: account discriminator mismatch")
	ErrTrailingData          = errors.New("sle: trailing bytes after account data")
	ErrLengthPrefix          = errors.New("sle: length prefix exceeds account bounds")
)

// DataFeedDiscriminator prefixes every serialized data feed account.
var DataFeedDiscriminator = AccountDiscriminator("DataFeed")

// AccountDiscriminator returns sha256("account:" + name)[:8].
func AccountDiscriminator(name string) [DiscriminatorLength]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [DiscriminatorLength]byte
	copy(d[:], sum[:DiscriminatorLength])
	return d
}

// dataFeedData is the borsh layout of a data feed account.
// Field order is part of the persisted format.
type dataFeedData struct {
	Owner       solana.PublicKey
	FeedID      uint16
	Value       int64
	Timestamp   int64
	SourceLabel string
	License     uint8
	Subscribers []solana.PublicKey
	Bump        uint8
	Auditor     solana.PublicKey
	Min         int64
	Max         int64
	Sequence    uint32
}

// SerializeDataFeed encodes a data feed account as discriminator followed by
// the borsh encoding of its fields.
func SerializeDataFeed(feed *entries.DataFeed) ([]byte, error) {
	if err := feed.Validate(); err != nil {
		return nil, fmt.Errorf("sle: invalid data feed: %w", err)
	}

	data := dataFeedData{
		Owner:       feed.Owner,
		FeedID:      feed.FeedID,
		Value:       feed.Value,
		Timestamp:   feed.Timestamp,
		SourceLabel: feed.SourceLabel,
		License:     uint8(feed.License),
		Subscribers: feed.Subscribers,
		Bump:        feed.Bump,
		Auditor:     feed.Auditor,
		Min:         feed.Min,
		Max:         feed.Max,
		Sequence:    feed.Sequence,
	}
	if data.Subscribers == nil {
		data.Subscribers = []solana.PublicKey{}
	}

	buf := new(bytes.Buffer)
	buf.Write(DataFeedDiscriminator[:])
	if err := bin.NewBorshEncoder(buf).Encode(&data); err != nil {
		return nil, fmt.Errorf("sle: encode data feed: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseDataFeed decodes a data feed account from its persisted form.
func ParseDataFeed(raw []byte) (*entries.DataFeed, error) {
	if len(raw) < DiscriminatorLength {
		return nil, ErrTruncated
	}
	if !bytes.Equal(raw[:DiscriminatorLength], DataFeedDiscriminator[:]) {
		return nil, ErrDiscriminatorMismatch
	}

	body := raw[DiscriminatorLength:]
	if err := checkLengthPrefixes(body); err != nil {
		return nil, err
	}

	var data dataFeedData
	dec := bin.NewBorshDecoder(body)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("sle: decode data feed: %w", err)
	}
	if dec.Remaining() != 0 {
		return nil, ErrTrailingData
	}

	feed := &entries.DataFeed{
		Owner:       data.Owner,
		FeedID:      data.FeedID,
		Bump:        data.Bump,
		Value:       data.Value,
		Timestamp:   data.Timestamp,
		SourceLabel: data.SourceLabel,
		License:     entry.License(data.License),
		Auditor:     data.Auditor,
		Min:         data.Min,
		Max:         data.Max,
		Sequence:    data.Sequence,
	}
	if len(data.Subscribers) > 0 {
		feed.Subscribers = data.Subscribers
	}
	if err := feed.Validate(); err != nil {
		return nil, fmt.Errorf("sle: invalid data feed: %w", err)
	}
	return feed, nil
}

// checkLengthPrefixes bounds the label and subscriber length prefixes of
// a borsh body before it is decoded, so a corrupted record cannot make the
// decoder allocate past the account limits.
func checkLengthPrefixes(body []byte) error {
	dec := bin.NewBorshDecoder(body)
	// Owner, FeedID, Value, Timestamp
	if err := dec.SkipBytes(solana.PublicKeyLength + 2 + 8 + 8); err != nil {
		return fmt.Errorf("sle: decode data feed: %w", err)
	}
	labelLen, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return fmt.Errorf("sle: decode data feed: %w", err)
	}
	if labelLen > entries.MaxSourceLabelLength {
		return fmt.Errorf("%w: source label of %d bytes", ErrLengthPrefix, labelLen)
	}
	// label bytes, License
	if err := dec.SkipBytes(uint(labelLen) + 1); err != nil {
		return fmt.Errorf("sle: decode data feed: %w", err)
	}
	subscribers, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return fmt.Errorf("sle: decode data feed: %w", err)
	}
	if subscribers > entries.MaxSubscribers {
		return fmt.Errorf("%w: %d subscribers", ErrLengthPrefix, subscribers)
	}
	return nil
}
