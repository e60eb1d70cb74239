// Package pull implements the consuming side of the cross-program read path.
// A Consumer is a separate program with its own identity; it reads data feeds
// through an Invoker, which authorizes the read against that identity.
package pull

import (
	"context"
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/ledger/entry"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Reading is what a successful read returns.
type Reading struct {
	Value     int64         `json:"value"`
	Timestamp int64         `json:"timestamp"`
	License   entry.License `json:"license"`
}

// Invoker performs an authorized read of the data feed at feed on behalf of
// caller. A denied or failed read returns an error and a zero Reading.
type Invoker interface {
	Invoke(ctx context.Context, caller, feed solana.PublicKey) (Reading, error)
}

// Consumer is a program that pulls data feed values from the oracle.
type Consumer struct {
	id     solana.PublicKey
	oracle Invoker
	log    *zap.Logger
}

// NewConsumer creates a consumer program with identity id.
func NewConsumer(id solana.PublicKey, oracle Invoker, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{
		id:     id,
		oracle: oracle,
		log:    log.Named("consumer").With(zap.Stringer("program", id)),
	}
}

// ID returns the consumer's program identity, the identity the oracle
// authorizes reads against.
func (c *Consumer) ID() solana.PublicKey {
	return c.id
}

// PullOracle reads the data feed at feed on behalf of endCaller. The end
// caller is only recorded; subscriptions are granted to the consumer's id.
// A denial from the oracle is propagated, never replaced by a default.
func (c *Consumer) PullOracle(ctx context.Context, endCaller, feed solana.PublicKey) (Reading, error) {
	r, err := c.oracle.Invoke(ctx, c.id, feed)
	if err != nil {
		c.log.Info("pull failed",
			zap.Stringer("feed", feed),
			zap.Stringer("caller", endCaller),
			zap.Error(err),
		)
		return Reading{}, fmt.Errorf("pull %s: %w", feed, err)
	}

	c.log.Info("pulled value",
		zap.Stringer("feed", feed),
		zap.Stringer("caller", endCaller),
		zap.Int64("value", r.Value),
		zap.Int64("timestamp", r.Timestamp),
		zap.Stringer("license", r.License),
	)
	return r, nil
}
