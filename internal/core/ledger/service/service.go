// Package service ties the transaction engine, the committed state and the
// consumer program together behind the operations the RPC layer exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LeJamon/goOracled/internal/core/ledger/entry"
	"github.com/LeJamon/goOracled/internal/core/ledger/keylet"
	"github.com/LeJamon/goOracled/internal/core/ledger/state"
	"github.com/LeJamon/goOracled/internal/core/pull"
	"github.com/LeJamon/goOracled/internal/core/tx"
	_ "github.com/LeJamon/goOracled/internal/core/tx/all"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Common errors
var (
	ErrNoConsumer = errors.New("no consumer program configured")
)

// Config holds configuration for the Service
type Config struct {
	// Engine configures transaction processing
	Engine tx.EngineConfig

	// ConsumerID is the identity pull requests read with; zero disables Pull
	ConsumerID solana.PublicKey

	// Observers receive every applied transaction and read
	Observers []tx.Observer

	Logger *zap.Logger
}

// Service manages the oracle state and its consumer
type Service struct {
	config    Config
	ledger    *state.Ledger
	engine    *tx.Engine
	consumer  *pull.Consumer
	publisher *EventPublisher
	log       *zap.Logger
	started   time.Time
}

// New creates a new Service over the committed state ledger
func New(ledger *state.Ledger, cfg Config) (*Service, error) {
	if cfg.Engine.ProgramID.IsZero() {
		return nil, fmt.Errorf("service: program id is required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		config:    cfg,
		ledger:    ledger,
		publisher: NewEventPublisher(),
		log:       log.Named("service"),
		started:   time.Now(),
	}

	opts := []tx.Option{tx.WithLogger(log), tx.WithObserver(s.publisher)}
	for _, o := range cfg.Observers {
		opts = append(opts, tx.WithObserver(o))
	}
	s.engine = tx.NewEngine(ledger, cfg.Engine, opts...)

	if !cfg.ConsumerID.IsZero() {
		s.consumer = pull.NewConsumer(cfg.ConsumerID, s.engine, log)
	}
	return s, nil
}

// Engine returns the transaction engine
func (s *Service) Engine() *tx.Engine {
	return s.engine
}

// Events returns the publisher transaction and read events are sent to
func (s *Service) Events() *EventPublisher {
	return s.publisher
}

// SubmitResult contains the result of submitting a transaction
type SubmitResult struct {
	// ID is the transaction signature
	ID string

	Result tx.Result

	// Applied indicates if the transaction changed state
	Applied bool

	Metadata *tx.Metadata

	// Message is a human-readable result message
	Message string

	// Reading is set by a successful GetDataFeed
	Reading *pull.Reading
}

// SubmitTransaction decodes a JSON transaction and applies it
func (s *Service) SubmitTransaction(ctx context.Context, txJSON []byte) (*SubmitResult, error) {
	transaction, err := tx.FromJSON(txJSON)
	if err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return s.Submit(ctx, transaction), nil
}

// Submit applies a decoded transaction
func (s *Service) Submit(ctx context.Context, transaction tx.Transaction) *SubmitResult {
	res := s.engine.Apply(ctx, transaction)
	return &SubmitResult{
		ID:       transaction.GetCommon().ID(),
		Result:   res.Result,
		Applied:  res.Applied,
		Metadata: res.Metadata,
		Message:  res.Message,
		Reading:  res.Reading,
	}
}

// DataFeedInfo is the public description of a data feed account. It never
// carries the reading; that is only released through an authorized read.
// The subscriber list of a private feed is withheld, only its size is given.
type DataFeedInfo struct {
	Address         solana.PublicKey   `json:"address"`
	Owner           solana.PublicKey   `json:"owner"`
	FeedID          uint16             `json:"feed_id"`
	Bump            uint8              `json:"bump"`
	License         entry.License      `json:"license"`
	SubscriberCount int                `json:"subscriber_count"`
	Subscribers     []solana.PublicKey `json:"subscribers,omitempty"`
	Auditor         *solana.PublicKey  `json:"auditor,omitempty"`
	Min             int64              `json:"min"`
	Max             int64              `json:"max"`
	Sequence        uint32             `json:"sequence"`
}

// GetDataFeed returns the description of the data feed at address
func (s *Service) GetDataFeed(address solana.PublicKey) (*DataFeedInfo, error) {
	feed, err := s.engine.DataFeed(address)
	if err != nil {
		return nil, err
	}
	info := &DataFeedInfo{
		Address:         address,
		Owner:           feed.Owner,
		FeedID:          feed.FeedID,
		Bump:            feed.Bump,
		License:         feed.License,
		SubscriberCount: len(feed.Subscribers),
		Min:             feed.Min,
		Max:             feed.Max,
		Sequence:        feed.Sequence,
	}
	if !feed.License.RequiresSubscription() {
		info.Subscribers = append([]solana.PublicKey{}, feed.Subscribers...)
	}
	if feed.HasAuditor() {
		auditor := feed.Auditor
		info.Auditor = &auditor
	}
	return info, nil
}

// DeriveAddress returns the data feed address of (owner, feedID)
func (s *Service) DeriveAddress(owner solana.PublicKey, feedID uint16) (keylet.Keylet, error) {
	return s.engine.Derive(owner, feedID)
}

// Pull reads the data feed at feed through the consumer program on behalf of
// endCaller.
func (s *Service) Pull(ctx context.Context, endCaller, feed solana.PublicKey) (pull.Reading, error) {
	if s.consumer == nil {
		return pull.Reading{}, ErrNoConsumer
	}
	return s.consumer.PullOracle(ctx, endCaller, feed)
}

// ServerInfo contains basic server status information
type ServerInfo struct {
	ProgramID             solana.PublicKey  `json:"program_id"`
	ConsumerID            *solana.PublicKey `json:"consumer_id,omitempty"`
	Feeds                 int               `json:"feeds"`
	CacheHits             uint64            `json:"cache_hits"`
	CacheMisses           uint64            `json:"cache_misses"`
	RejectStaleTimestamps bool              `json:"reject_stale_timestamps"`
	TransactionTypes      []string          `json:"transaction_types"`
	UptimeSeconds         int64             `json:"uptime"`
}

// GetServerInfo returns basic server information
func (s *Service) GetServerInfo() (ServerInfo, error) {
	feeds, err := s.ledger.Count()
	if err != nil {
		return ServerInfo{}, fmt.Errorf("count feeds: %w", err)
	}
	hits, misses := s.ledger.CacheStats()

	info := ServerInfo{
		ProgramID:             s.config.Engine.ProgramID,
		Feeds:                 feeds,
		CacheHits:             hits,
		CacheMisses:           misses,
		RejectStaleTimestamps: s.config.Engine.RejectStaleTimestamps,
		UptimeSeconds:         int64(time.Since(s.started) / time.Second),
	}
	if s.consumer != nil {
		id := s.consumer.ID()
		info.ConsumerID = &id
	}
	for _, t := range tx.SupportedTypes() {
		info.TransactionTypes = append(info.TransactionTypes, t.String())
	}
	return info, nil
}
