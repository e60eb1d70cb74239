// Package metrics exports engine activity as prometheus collectors.
package metrics

import (
	"errors"

	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "oracled"

var _ tx.Observer = (*Metrics)(nil)

// Metrics counts applied transactions and feed reads.
type Metrics struct {
	txTotal    *prometheus.CounterVec
	txDuration *prometheus.HistogramVec
	pullTotal  *prometheus.CounterVec
}

// New creates the collectors and registers them with registerer.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		txTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tx_total",
				Help:      "Transactions processed, by type and result",
			},
			[]string{"type", "result"},
		),
		txDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tx_apply_seconds",
				Help:      "Time spent applying a transaction, lock wait included",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"type"},
		),
		pullTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pull_total",
				Help:      "Authorized feed reads, by result",
			},
			[]string{"result"},
		),
	}

	err := errors.Join(
		registerer.Register(m.txTotal),
		registerer.Register(m.txDuration),
		registerer.Register(m.pullTotal),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// TransactionApplied implements tx.Observer.
func (m *Metrics) TransactionApplied(t tx.Transaction, result tx.ApplyResult) {
	typ := t.TxType().String()
	m.txTotal.WithLabelValues(typ, result.Result.String()).Inc()
	m.txDuration.WithLabelValues(typ).Observe(result.Elapsed.Seconds())
}

// FeedRead implements tx.Observer.
func (m *Metrics) FeedRead(_, _ solana.PublicKey, result tx.Result) {
	m.pullTotal.WithLabelValues(result.String()).Inc()
}
