package testing

import (
	"testing"

	"github.com/LeJamon/goOracled/internal/core/ledger/entry"
	"github.com/LeJamon/goOracled/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

// RequireTxSuccess asserts that a transaction result indicates success.
func RequireTxSuccess(t *testing.T, result TxResult) {
	t.Helper()
	require.True(t, result.Success,
		"Expected transaction success, got %s: %s", result.Code, result.Message)
	require.Equal(t, tx.TesSUCCESS, result.Result,
		"Expected tesSUCCESS, got %s: %s", result.Code, result.Message)
}

// RequireTxFail asserts that a transaction result indicates failure with a specific code.
func RequireTxFail(t *testing.T, result TxResult, expected tx.Result) {
	t.Helper()
	require.False(t, result.Success,
		"Expected transaction failure with code %s, but transaction succeeded", expected)
	require.Equal(t, expected, result.Result,
		"Expected failure code %s, got %s: %s", expected, result.Code, result.Message)
	require.False(t, result.Applied, "A failed transaction must not change state")
}

// RequireFeedExists asserts that a data feed account is stored at addr.
func RequireFeedExists(t *testing.T, env *TestEnv, addr solana.PublicKey) *entries.DataFeed {
	t.Helper()
	feed := env.DataFeed(addr)
	require.NotNil(t, feed, "Expected data feed %s to exist, but it does not", addr)
	return feed
}

// RequireFeedNotExists asserts that nothing is stored at addr.
func RequireFeedNotExists(t *testing.T, env *TestEnv, addr solana.PublicKey) {
	t.Helper()
	require.False(t, env.Exists(addr),
		"Expected no account at %s, but one exists", addr)
}

// RequireValue asserts the stored reading of the feed at addr.
func RequireValue(t *testing.T, env *TestEnv, addr solana.PublicKey, value, timestamp int64, label string) {
	t.Helper()
	feed := RequireFeedExists(t, env, addr)
	require.Equal(t, value, feed.Value, "value of %s", addr)
	require.Equal(t, timestamp, feed.Timestamp, "timestamp of %s", addr)
	require.Equal(t, label, feed.SourceLabel, "source label of %s", addr)
}

// RequireLicense asserts the license of the feed at addr.
func RequireLicense(t *testing.T, env *TestEnv, addr solana.PublicKey, expected entry.License) {
	t.Helper()
	feed := RequireFeedExists(t, env, addr)
	require.Equal(t, expected, feed.License, "license of %s", addr)
}

// RequireSubscribers asserts the subscriber list of the feed at addr, in order.
func RequireSubscribers(t *testing.T, env *TestEnv, addr solana.PublicKey, expected ...*Account) {
	t.Helper()
	feed := RequireFeedExists(t, env, addr)
	want := make([]solana.PublicKey, 0, len(expected))
	for _, acc := range expected {
		want = append(want, acc.PublicKey)
	}
	got := feed.Subscribers
	if got == nil {
		got = []solana.PublicKey{}
	}
	require.Equal(t, want, got, "subscribers of %s", addr)
}

// RequireUnchanged asserts that the stored bytes at addr equal before.
func RequireUnchanged(t *testing.T, env *TestEnv, addr solana.PublicKey, before []byte) {
	t.Helper()
	require.Equal(t, before, env.Raw(addr), "account %s changed", addr)
}
