package testing

import (
	"testing"
	"time"

	"github.com/LeJamon/goOracled/internal/core/ledger/entry"
	"github.com/LeJamon/goOracled/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/LeJamon/goOracled/internal/core/tx/oracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	// Test deterministic account creation
	alice1 := NewAccount("alice")
	alice2 := NewAccount("alice")

	// Same name should produce same account
	assert.Equal(t, alice1.PublicKey, alice2.PublicKey)
	assert.Equal(t, alice1.PrivateKey, alice2.PrivateKey)

	// Different name should produce different account
	bob := NewAccount("bob")
	assert.NotEqual(t, alice1.PublicKey, bob.PublicKey)

	assert.Equal(t, alice1.PublicKey, alice1.PrivateKey.PublicKey())
	assert.Equal(t, alice1.PublicKey.String(), alice1.Human())
	assert.Contains(t, alice1.String(), "alice")
}

func TestSignAs(t *testing.T) {
	alice := NewAccount("alice")
	bob := NewAccount("bob")
	feed := NewAccount("feed").PublicKey

	signed := SignAs(oracle.NewSetValue(alice.PublicKey, feed, 1, 2, ""), alice)
	require.NoError(t, tx.VerifySignature(signed))

	forged := SignAs(oracle.NewSetValue(alice.PublicKey, feed, 1, 2, ""), bob)
	assert.ErrorIs(t, tx.VerifySignature(forged), tx.ErrBadSignature)
	assert.Equal(t, alice.PublicKey, forged.GetCommon().Signer)
}

func TestEnvInit(t *testing.T) {
	env := NewTestEnv(t)
	alice := NewAccount("alice")

	addr := env.Feed(alice, 7)
	RequireFeedNotExists(t, env, addr)
	assert.Nil(t, env.DataFeed(addr))

	assert.Equal(t, addr, env.Init(alice, 7))
	feed := RequireFeedExists(t, env, addr)
	assert.Equal(t, alice.PublicKey, feed.Owner)
	assert.Equal(t, uint16(7), feed.FeedID)
	RequireLicense(t, env, addr, entry.LicensePrivate)
	RequireSubscribers(t, env, addr)
	RequireValue(t, env, addr, 0, 0, "")
}

func TestEnvBacked(t *testing.T) {
	env := NewTestEnvBacked(t)
	alice := NewAccount("alice")

	addr := env.Init(alice, 1)
	before := env.Raw(addr)
	require.NotEmpty(t, before)

	result := env.Submit(SignAs(oracle.NewSetValue(alice.PublicKey, addr, 9, 10, "x"), alice))
	RequireTxSuccess(t, result)
	assert.True(t, result.Applied)
	RequireValue(t, env, addr, 9, 10, "x")

	result = env.Submit(SignAs(oracle.NewSetLicense(alice.PublicKey, addr, entry.License(7)), alice))
	RequireTxFail(t, result, tx.TemBAD_LICENSE)
}

func TestSubmitFillsSequence(t *testing.T) {
	env := NewTestEnv(t)
	alice := NewAccount("alice")
	mallory := NewAccount("mallory")
	addr := env.Init(alice, 1)
	assert.Equal(t, entries.InitialSequence, env.Sequence(addr))

	set := SignAs(oracle.NewSetValue(alice.PublicKey, addr, 1, 2, ""), alice)
	RequireTxSuccess(t, env.Submit(set))
	assert.Equal(t, entries.InitialSequence, set.GetCommon().Sequence)
	require.NoError(t, tx.VerifySignature(set))
	assert.Equal(t, entries.InitialSequence+1, env.Sequence(addr))

	// a submitted update keeps its sequence
	RequireTxFail(t, env.Submit(set), tx.TefPAST_SEQ)

	// signed again by the same wrong key
	forged := SignAs(oracle.NewSetValue(alice.PublicKey, addr, 3, 4, ""), mallory)
	RequireTxFail(t, env.Submit(forged), tx.TemBAD_SIGNATURE)

	read := SignAs(oracle.NewGetDataFeed(alice.PublicKey, addr), alice)
	RequireTxFail(t, env.Submit(read), tx.TecSUBSCRIPTION_REQUIRED)
	assert.Zero(t, read.GetCommon().Sequence)
}

func TestApplyAllFillsSequences(t *testing.T) {
	env := NewTestEnv(t)
	alice := NewAccount("alice")
	addr := env.Feed(alice, 1)

	results := env.ApplyAll(
		SignAs(oracle.NewInitialize(alice.PublicKey, addr, 1), alice),
		SignAs(oracle.NewSetValue(alice.PublicKey, addr, 1, 1, ""), alice),
		SignAs(oracle.NewSetValue(alice.PublicKey, addr, 2, 2, ""), alice),
	)
	for _, r := range results {
		RequireTxSuccess(t, r)
	}
	RequireValue(t, env, addr, 2, 2, "")
	assert.Equal(t, entries.InitialSequence+2, env.Sequence(addr))
}

func TestTxResultClassification(t *testing.T) {
	tests := []struct {
		result    tx.Result
		claimed   bool
		malformed bool
		failed    bool
		retry     bool
	}{
		{tx.TesSUCCESS, false, false, false, false},
		{tx.TecNO_PERMISSION, true, false, false, false},
		{tx.TemBAD_SIGNATURE, false, true, false, false},
		{tx.TefBAD_ADDRESS, false, false, true, false},
		{tx.TefPAST_SEQ, false, false, true, false},
		{tx.TerPRE_SEQ, false, false, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.result.String(), func(t *testing.T) {
			r := newTxResult(tx.ApplyResult{Result: tc.result})
			assert.Equal(t, tc.result.IsSuccess(), r.IsSuccess())
			assert.Equal(t, tc.claimed, r.IsClaimed())
			assert.Equal(t, tc.malformed, r.IsMalformed())
			assert.Equal(t, tc.failed, r.IsFailed())
			assert.Equal(t, tc.retry, r.IsRetry())
		})
	}
}

func TestClock(t *testing.T) {
	env := NewTestEnv(t)
	start := env.Now()
	assert.Equal(t, int64(1700000000), env.Timestamp())
	assert.Equal(t, DefaultFeedTime, start)

	env.AdvanceTime(10 * time.Second)
	assert.Equal(t, start.Add(10*time.Second), env.Now())
	env.AdvanceTime(-20 * time.Second)
	assert.Equal(t, int64(1699999990), env.Timestamp())

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	env.SetTime(at)
	assert.Equal(t, at, env.Now())
}
