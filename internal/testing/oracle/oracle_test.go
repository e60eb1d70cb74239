package oracle_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/LeJamon/goOracled/internal/core/ledger/entry"
	"github.com/LeJamon/goOracled/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goOracled/internal/core/ledger/keylet"
	"github.com/LeJamon/goOracled/internal/core/tx"
	coreoracle "github.com/LeJamon/goOracled/internal/core/tx/oracle"
	jtx "github.com/LeJamon/goOracled/internal/testing"
	oracletest "github.com/LeJamon/goOracled/internal/testing/oracle"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setValue publishes value with the env clock as timestamp and verifies success.
func setValue(t *testing.T, env *jtx.TestEnv, owner *jtx.Account, feed solana.PublicKey, value int64, label string) int64 {
	t.Helper()
	ts := oracletest.DefaultTimestamp(env)
	result := env.Submit(oracletest.SetValue(owner, feed, value).Timestamp(ts).Label(label).Build())
	jtx.RequireTxSuccess(t, result)
	return ts
}

// capture copies a submitted transaction the way an observer of the wire
// would see it.
func capture(t *testing.T, txn tx.Transaction) tx.Transaction {
	t.Helper()
	data, err := tx.ToJSON(txn)
	require.NoError(t, err)
	copied, err := tx.FromJSON(data)
	require.NoError(t, err)
	return copied
}

func TestDerivationIsDeterministic(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")

	seen := make(map[solana.PublicKey]string)
	for _, owner := range []*jtx.Account{alice, bob} {
		for _, id := range []uint16{0, 1, 180, 65535} {
			first, err := keylet.DataFeed(env.ProgramID(), owner.PublicKey, id)
			require.NoError(t, err)
			second, err := keylet.DataFeed(env.ProgramID(), owner.PublicKey, id)
			require.NoError(t, err)
			assert.Equal(t, first, second)

			name := fmt.Sprintf("%s/%d", owner.Name, id)
			if prev, dup := seen[first.Key]; dup {
				t.Fatalf("%s and %s derive the same address", prev, name)
			}
			seen[first.Key] = name
		}
	}
}

func TestInitialize(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")

	t.Run("defaults", func(t *testing.T) {
		feed := env.Init(alice, 1)
		f := jtx.RequireFeedExists(t, env, feed)
		assert.Equal(t, alice.PublicKey, f.Owner)
		assert.Equal(t, entry.LicensePrivate, f.License)
		assert.Empty(t, f.Subscribers)
		assert.False(t, f.HasAuditor())
		jtx.RequireValue(t, env, feed, 0, 0, "")
	})

	t.Run("re-initialize fails", func(t *testing.T) {
		feed := env.Feed(alice, 1)
		setValue(t, env, alice, feed, 5, "x")
		before := env.Raw(feed)

		result := env.Submit(oracletest.Initialize(alice, feed, 1).Build())
		jtx.RequireTxFail(t, result, tx.TefALREADY_INITIALIZED)
		assert.ErrorIs(t, result.Result.Err(), tx.ErrAlreadyInitialized)
		jtx.RequireUnchanged(t, env, feed, before)
	})

	t.Run("address must derive from signer", func(t *testing.T) {
		// bob claims alice's feed 2 address
		feed := env.Feed(alice, 2)
		result := env.Submit(oracletest.Initialize(bob, feed, 2).Build())
		jtx.RequireTxFail(t, result, tx.TefBAD_ADDRESS)
		jtx.RequireFeedNotExists(t, env, feed)

		result = env.Submit(oracletest.Initialize(alice, feed, 3).Build())
		jtx.RequireTxFail(t, result, tx.TefBAD_ADDRESS)
		jtx.RequireFeedNotExists(t, env, feed)
	})

	t.Run("any caller may create its own feed", func(t *testing.T) {
		feed := env.Feed(bob, 1)
		jtx.RequireTxSuccess(t, env.Submit(oracletest.Initialize(bob, feed, 1).Build()))
		assert.NotEqual(t, env.Feed(alice, 1), feed)
	})
}

func TestUninitializedFeed(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	feed := env.Feed(alice, 9)

	jtx.RequireTxFail(t, env.Submit(oracletest.SetValue(alice, feed, 1).Build()), tx.TecNO_ENTRY)
	jtx.RequireTxFail(t, env.Submit(oracletest.SetLicense(alice, feed, entry.LicensePublic).Build()), tx.TecNO_ENTRY)
	jtx.RequireTxFail(t, env.Submit(oracletest.GetDataFeed(alice, feed)), tx.TecNO_ENTRY)

	_, err := env.Pull(alice.PublicKey, feed)
	assert.ErrorIs(t, err, tx.ErrNotFound)
	jtx.RequireFeedNotExists(t, env, feed)
}

func TestSetValueIsVisibleImmediately(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	feed := env.Init(alice, 1)
	jtx.RequireTxSuccess(t, env.Submit(oracletest.Subscribe(alice, feed, alice.PublicKey).Build()))

	for i, value := range []int64{50000, -3, 0, 1 << 40} {
		env.AdvanceTime(time.Second)
		label := fmt.Sprintf("src-%d", i)
		ts := setValue(t, env, alice, feed, value, label)
		jtx.RequireValue(t, env, feed, value, ts, label)

		result := env.Submit(oracletest.GetDataFeed(alice, feed))
		jtx.RequireTxSuccess(t, result)
		require.NotNil(t, result.Reading)
		assert.Equal(t, value, result.Reading.Value)
		assert.Equal(t, ts, result.Reading.Timestamp)
	}
}

func TestSetValueMetadata(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	feed := env.Init(alice, 1)

	result := env.Submit(oracletest.SetValue(alice, feed, 1).Timestamp(2).Build())
	jtx.RequireTxSuccess(t, result)
	assert.True(t, result.Applied)
	require.NotNil(t, result.Metadata)
	assert.Len(t, result.Metadata.AffectedNodes, 1)
}

func TestSetValueLabel(t *testing.T) {
	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	feed := env.Init(alice, 1)

	longest := string(make([]byte, entries.MaxSourceLabelLength))
	jtx.RequireTxSuccess(t, env.Submit(oracletest.SetValue(alice, feed, 1).Label(longest).Build()))

	before := env.Raw(feed)
	result := env.Submit(oracletest.SetValue(alice, feed, 2).Label(longest + "x").Build())
	jtx.RequireTxFail(t, result, tx.TemMALFORMED)
	jtx.RequireUnchanged(t, env, feed, before)
}

func TestNonOwnerMutationsFail(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := jtx.NewAccount("owner")
	mallory := jtx.NewAccount("mallory")
	feed := env.Init(owner, 1)
	setValue(t, env, owner, feed, 100, "owner")
	jtx.RequireTxSuccess(t, env.Submit(oracletest.Subscribe(owner, feed, owner.PublicKey).Build()))

	tests := []struct {
		name string
		txn  tx.Transaction
	}{
		{"SetValue", oracletest.SetValue(mallory, feed, 1).Timestamp(1).Build()},
		{"SetLicense", oracletest.SetLicense(mallory, feed, entry.LicensePublic).Build()},
		{"AddSubscription", oracletest.Subscribe(mallory, feed, mallory.PublicKey).Build()},
		{"RevokeSubscription", oracletest.Revoke(mallory, feed, owner.PublicKey).Build()},
		{"SetAuditor", oracletest.SetAuditor(mallory, feed, mallory.PublicKey)},
		{"SetLimit", oracletest.SetLimit(mallory, feed, 0, 10)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := env.Raw(feed)
			result := env.Submit(tc.txn)
			jtx.RequireTxFail(t, result, tx.TecNO_PERMISSION)
			assert.ErrorIs(t, result.Result.Err(), tx.ErrUnauthorized)
			jtx.RequireUnchanged(t, env, feed, before)
		})
	}
}

func TestSubscriptions(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := jtx.NewAccount("owner")
	x := jtx.NewAccount("x")
	y := jtx.NewAccount("y")
	feed := env.Init(owner, 1)

	t.Run("duplicate add is a no-op", func(t *testing.T) {
		jtx.RequireTxSuccess(t, env.Submit(oracletest.Subscribe(owner, feed, x.PublicKey).Build()))
		jtx.RequireTxSuccess(t, env.Submit(oracletest.Subscribe(owner, feed, x.PublicKey).Build()))
		jtx.RequireSubscribers(t, env, feed, x)
	})

	t.Run("revoke removes read access", func(t *testing.T) {
		setValue(t, env, owner, feed, 7, "")
		_, err := env.Pull(x.PublicKey, feed)
		require.NoError(t, err)

		jtx.RequireTxSuccess(t, env.Submit(oracletest.Revoke(owner, feed, x.PublicKey).Build()))
		jtx.RequireSubscribers(t, env, feed)

		r, err := env.Pull(x.PublicKey, feed)
		assert.ErrorIs(t, err, tx.ErrUnauthorized)
		assert.Zero(t, r)
	})

	t.Run("revoke of a non-member succeeds", func(t *testing.T) {
		seq := env.Sequence(feed)
		result := env.Submit(oracletest.Revoke(owner, feed, y.PublicKey).Build())
		jtx.RequireTxSuccess(t, result)
		jtx.RequireSubscribers(t, env, feed)
		// only the sequence moves
		assert.True(t, result.Applied)
		assert.Equal(t, seq+1, env.Sequence(feed))
	})

	t.Run("zero subscriber is malformed", func(t *testing.T) {
		result := env.Submit(oracletest.Subscribe(owner, feed, solana.PublicKey{}).Build())
		jtx.RequireTxFail(t, result, tx.TemMALFORMED)
	})

	t.Run("subscriber set is bounded", func(t *testing.T) {
		for i := 0; i < entries.MaxSubscribers; i++ {
			sub := jtx.NewAccount(fmt.Sprintf("sub-%d", i))
			jtx.RequireTxSuccess(t, env.Submit(oracletest.Subscribe(owner, feed, sub.PublicKey).Build()))
		}
		before := env.Raw(feed)
		result := env.Submit(oracletest.Subscribe(owner, feed, y.PublicKey).Build())
		jtx.RequireTxFail(t, result, tx.TecSUBSCRIBER_LIMIT)
		jtx.RequireUnchanged(t, env, feed, before)

		// re-adding an existing member is still fine when full
		existing := jtx.NewAccount("sub-0")
		jtx.RequireTxSuccess(t, env.Submit(oracletest.Subscribe(owner, feed, existing.PublicKey).Build()))
	})
}

func TestReadRule(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := jtx.NewAccount("owner")
	reader := jtx.NewAccount("reader")
	feed := env.Init(owner, 1)
	setValue(t, env, owner, feed, 11, "")

	t.Run("owner is not an implicit reader", func(t *testing.T) {
		result := env.Submit(oracletest.GetDataFeed(owner, feed))
		jtx.RequireTxFail(t, result, tx.TecSUBSCRIPTION_REQUIRED)
		assert.Nil(t, result.Reading)
	})

	t.Run("public feed is readable by anyone", func(t *testing.T) {
		jtx.RequireTxSuccess(t, env.Submit(oracletest.SetLicense(owner, feed, entry.LicensePublic).Build()))
		for i := 0; i < 5; i++ {
			caller := jtx.NewAccount(fmt.Sprintf("anyone-%d", i))
			r, err := env.Pull(caller.PublicKey, feed)
			require.NoError(t, err)
			assert.Equal(t, int64(11), r.Value)
			assert.Equal(t, entry.LicensePublic, r.License)
		}
		result := env.Submit(oracletest.GetDataFeed(reader, feed))
		jtx.RequireTxSuccess(t, result)
		assert.False(t, result.Applied, "reads never mutate state")
	})

	t.Run("back to private", func(t *testing.T) {
		jtx.RequireTxSuccess(t, env.Submit(oracletest.SetLicense(owner, feed, entry.LicensePrivate).Build()))
		_, err := env.Pull(reader.PublicKey, feed)
		assert.ErrorIs(t, err, tx.ErrUnauthorized)
	})
}

func TestPublicFeedScenario(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := jtx.NewAccount("O")
	program := jtx.NewAccount("P")

	feed := env.Init(owner, 1)
	ts := setValue(t, env, owner, feed, 50000, "Bitcoin")
	jtx.RequireTxSuccess(t, env.Submit(oracletest.SetLicense(owner, feed, entry.LicensePublic).Build()))

	r, err := env.Pull(program.PublicKey, feed)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), r.Value)
	assert.Equal(t, ts, r.Timestamp)
	assert.Equal(t, entry.LicensePublic, r.License)
}

func TestPrivateFeedScenario(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := jtx.NewAccount("O")
	program := jtx.NewAccount("P")

	feed := env.Init(owner, 180)
	jtx.RequireLicense(t, env, feed, entry.LicensePrivate)
	ts := setValue(t, env, owner, feed, 42, "")

	before := env.Raw(feed)
	_, err := env.Pull(program.PublicKey, feed)
	require.ErrorIs(t, err, tx.ErrUnauthorized)
	jtx.RequireUnchanged(t, env, feed, before)

	jtx.RequireTxSuccess(t, env.Submit(oracletest.Subscribe(owner, feed, program.PublicKey).Build()))

	r, err := env.Pull(program.PublicKey, feed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), r.Value)
	assert.Equal(t, ts, r.Timestamp)
	assert.Equal(t, entry.LicensePrivate, r.License)
}

func TestAuditorLimits(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := jtx.NewAccount("owner")
	auditor := jtx.NewAccount("auditor")
	stranger := jtx.NewAccount("stranger")
	feed := env.Init(owner, 1)

	jtx.RequireTxSuccess(t, env.Submit(oracletest.SetAuditor(owner, feed, auditor.PublicKey)))
	f := jtx.RequireFeedExists(t, env, feed)
	assert.Equal(t, auditor.PublicKey, f.Auditor)

	jtx.RequireTxSuccess(t, env.Submit(oracletest.SetLimit(auditor, feed, 10, 100)))
	jtx.RequireTxFail(t, env.Submit(oracletest.SetLimit(stranger, feed, 0, 1000)), tx.TecNO_PERMISSION)
	jtx.RequireTxFail(t, env.Submit(oracletest.SetLimit(owner, feed, 5, 1)), tx.TemBAD_LIMIT)

	t.Run("auditor cannot publish", func(t *testing.T) {
		result := env.Submit(oracletest.SetValue(auditor, feed, 50).Build())
		jtx.RequireTxFail(t, result, tx.TecNO_PERMISSION)
	})

	t.Run("auditor cannot replace itself", func(t *testing.T) {
		result := env.Submit(oracletest.SetAuditor(auditor, feed, stranger.PublicKey))
		jtx.RequireTxFail(t, result, tx.TecNO_PERMISSION)
	})

	t.Run("range is enforced", func(t *testing.T) {
		setValue(t, env, owner, feed, 10, "")
		setValue(t, env, owner, feed, 100, "")
		before := env.Raw(feed)
		for _, v := range []int64{9, 101, -1} {
			result := env.Submit(oracletest.SetValue(owner, feed, v).Timestamp(1).Build())
			jtx.RequireTxFail(t, result, tx.TecVALUE_OUT_OF_RANGE)
			assert.ErrorIs(t, result.Result.Err(), tx.ErrValueOutOfRange)
		}
		jtx.RequireUnchanged(t, env, feed, before)
	})

	t.Run("zero limit disables the check", func(t *testing.T) {
		jtx.RequireTxSuccess(t, env.Submit(oracletest.SetLimit(owner, feed, 0, 0)))
		setValue(t, env, owner, feed, -1000, "")
	})
}

func TestStaleTimestamps(t *testing.T) {
	owner := jtx.NewAccount("owner")

	t.Run("accepted by default", func(t *testing.T) {
		env := jtx.NewTestEnv(t)
		feed := env.Init(owner, 1)
		jtx.RequireTxSuccess(t, env.Submit(oracletest.SetValue(owner, feed, 1).Timestamp(200).Build()))
		jtx.RequireTxSuccess(t, env.Submit(oracletest.SetValue(owner, feed, 2).Timestamp(100).Build()))
		jtx.RequireValue(t, env, feed, 2, 100, "")
	})

	t.Run("rejected when enabled", func(t *testing.T) {
		env := jtx.NewTestEnvWithConfig(t, tx.EngineConfig{RejectStaleTimestamps: true})
		feed := env.Init(owner, 1)
		jtx.RequireTxSuccess(t, env.Submit(oracletest.SetValue(owner, feed, 1).Timestamp(200).Build()))
		jtx.RequireTxSuccess(t, env.Submit(oracletest.SetValue(owner, feed, 2).Timestamp(200).Build()))
		jtx.RequireTxFail(t, env.Submit(oracletest.SetValue(owner, feed, 3).Timestamp(100).Build()), tx.TecSTALE_TIMESTAMP)
		jtx.RequireValue(t, env, feed, 2, 200, "")
	})
}

func TestSignatures(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := jtx.NewAccount("owner")
	mallory := jtx.NewAccount("mallory")
	feed := env.Init(owner, 1)
	before := env.Raw(feed)

	t.Run("forged", func(t *testing.T) {
		result := env.Submit(oracletest.SetValue(owner, feed, 666).SignedBy(mallory).Build())
		jtx.RequireTxFail(t, result, tx.TemBAD_SIGNATURE)
	})

	t.Run("unsigned", func(t *testing.T) {
		result := env.Submit(oracletest.SetValue(owner, feed, 666).Unsigned().Build())
		jtx.RequireTxFail(t, result, tx.TemBAD_SIGNATURE)
	})

	t.Run("modified after signing", func(t *testing.T) {
		txn := oracletest.SetValue(owner, feed, 1).Sequence(env.Sequence(feed)).Build()
		txn.(*coreoracle.SetValue).Value = 666
		result := env.Submit(txn)
		jtx.RequireTxFail(t, result, tx.TemBAD_SIGNATURE)
	})

	t.Run("retargeted after signing", func(t *testing.T) {
		other := env.Init(owner, 2)
		txn := oracletest.SetValue(owner, feed, 1).Sequence(env.Sequence(other)).Build()
		txn.GetCommon().DataFeed = other
		jtx.RequireTxFail(t, env.Submit(txn), tx.TemBAD_SIGNATURE)
	})

	jtx.RequireUnchanged(t, env, feed, before)

	t.Run("subscription replayed after revoke", func(t *testing.T) {
		x := jtx.NewAccount("x")
		add := oracletest.Subscribe(owner, feed, x.PublicKey).Build()
		jtx.RequireTxSuccess(t, env.Submit(add))
		seen := capture(t, add)
		_, err := env.Pull(x.PublicKey, feed)
		require.NoError(t, err)

		jtx.RequireTxSuccess(t, env.Submit(oracletest.Revoke(owner, feed, x.PublicKey).Build()))
		revoked := env.Raw(feed)

		result := env.Submit(seen)
		jtx.RequireTxFail(t, result, tx.TefPAST_SEQ)
		assert.ErrorIs(t, result.Result.Err(), tx.ErrBadSequence)
		jtx.RequireUnchanged(t, env, feed, revoked)
		jtx.RequireSubscribers(t, env, feed)

		_, err = env.Pull(x.PublicKey, feed)
		assert.ErrorIs(t, err, tx.ErrUnauthorized)
	})

	t.Run("stale value replayed", func(t *testing.T) {
		old := oracletest.SetValue(owner, feed, 100).Timestamp(10).Label("old").Build()
		jtx.RequireTxSuccess(t, env.Submit(old))
		seen := capture(t, old)
		jtx.RequireTxSuccess(t, env.Submit(oracletest.SetValue(owner, feed, 200).Timestamp(20).Label("new").Build()))
		current := env.Raw(feed)

		jtx.RequireTxFail(t, env.Submit(seen), tx.TefPAST_SEQ)
		jtx.RequireTxFail(t, env.Submit(old), tx.TefPAST_SEQ)
		jtx.RequireUnchanged(t, env, feed, current)
		jtx.RequireValue(t, env, feed, 200, 20, "new")
	})

	t.Run("future sequence waits", func(t *testing.T) {
		next := env.Sequence(feed)
		ahead := oracletest.SetValue(owner, feed, 2).Timestamp(32).Sequence(next + 1).Build()
		result := env.Submit(ahead)
		jtx.RequireTxFail(t, result, tx.TerPRE_SEQ)
		assert.True(t, result.IsRetry())

		jtx.RequireTxSuccess(t, env.Submit(oracletest.SetValue(owner, feed, 1).Timestamp(31).Sequence(next).Build()))
		jtx.RequireTxSuccess(t, env.Submit(ahead))
		jtx.RequireValue(t, env, feed, 2, 32, "")
		assert.Equal(t, next+2, env.Sequence(feed))
	})

	t.Run("sequence is per feed", func(t *testing.T) {
		other := env.Init(owner, 3)
		txn := capture(t, oracletest.SetValue(owner, other, 5).Timestamp(40).Sequence(env.Sequence(other)).Build())
		jtx.RequireTxSuccess(t, env.Submit(txn))
		// same signer and arguments, but signed for the other feed
		txn.GetCommon().DataFeed = feed
		txn.GetCommon().Sequence = env.Sequence(feed)
		jtx.RequireTxFail(t, env.Submit(txn), tx.TemBAD_SIGNATURE)
	})
}

func TestTamperedAccount(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := jtx.NewAccount("owner")
	reader := jtx.NewAccount("reader")

	feed1 := env.Init(owner, 1)
	feed2 := env.Init(owner, 2)
	jtx.RequireTxSuccess(t, env.Submit(oracletest.SetLicense(owner, feed1, entry.LicensePublic).Build()))

	t.Run("account copied to another address", func(t *testing.T) {
		env.WriteRaw(feed2, env.Raw(feed1))

		result := env.Submit(oracletest.SetValue(owner, feed2, 1).Build())
		jtx.RequireTxFail(t, result, tx.TefBAD_ADDRESS)
		assert.ErrorIs(t, result.Result.Err(), tx.ErrInvalidAddress)

		_, err := env.Pull(reader.PublicKey, feed2)
		assert.ErrorIs(t, err, tx.ErrInvalidAddress)
	})

	t.Run("foreign account type", func(t *testing.T) {
		data := env.Raw(feed1)
		data[0] ^= 0xff
		env.WriteRaw(feed2, data)

		result := env.Submit(oracletest.SetValue(owner, feed2, 1).Build())
		jtx.RequireTxFail(t, result, tx.TefBAD_ADDRESS)
	})

	t.Run("original feed unaffected", func(t *testing.T) {
		_, err := env.Pull(reader.PublicKey, feed1)
		require.NoError(t, err)
	})
}

func TestApplyAllPreservesPerFeedOrder(t *testing.T) {
	env := jtx.NewTestEnvWithConfig(t, tx.EngineConfig{Workers: 4})
	const feeds, updates = 16, 20

	owners := make([]*jtx.Account, feeds)
	addrs := make([]solana.PublicKey, feeds)
	for i := range owners {
		owners[i] = jtx.NewAccount(fmt.Sprintf("owner-%d", i))
		addrs[i] = env.Feed(owners[i], uint16(i))
	}

	// interleave feeds; each feed's own transactions stay in order
	var batch []tx.Transaction
	for i := range owners {
		batch = append(batch, oracletest.Initialize(owners[i], addrs[i], uint16(i)).Build())
	}
	for u := 1; u <= updates; u++ {
		for i := range owners {
			batch = append(batch, oracletest.SetValue(owners[i], addrs[i], int64(u)).Timestamp(int64(u)).Build())
		}
	}

	results := env.ApplyAll(batch...)
	require.Len(t, results, len(batch))
	for i, r := range results {
		jtx.RequireTxSuccess(t, r)
		assert.True(t, r.Applied, "transaction %d", i)
	}
	for i := range addrs {
		jtx.RequireValue(t, env, addrs[i], updates, updates, "")
	}
}

func TestApplyAllReportsEachResult(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := jtx.NewAccount("owner")
	mallory := jtx.NewAccount("mallory")
	feed := env.Feed(owner, 1)

	first := entries.InitialSequence
	results := env.ApplyAll(
		oracletest.SetValue(owner, feed, 1).Sequence(first).Build(),
		oracletest.Initialize(owner, feed, 1).Build(),
		oracletest.SetValue(mallory, feed, 2).Sequence(first).Build(),
		oracletest.SetValue(owner, feed, 3).Sequence(first).Build(),
		oracletest.SetValue(owner, feed, 4).Sequence(first).Build(),
		oracletest.Initialize(owner, feed, 1).Build(),
	)
	require.Len(t, results, 6)
	jtx.RequireTxFail(t, results[0], tx.TecNO_ENTRY)
	jtx.RequireTxSuccess(t, results[1])
	jtx.RequireTxFail(t, results[2], tx.TecNO_PERMISSION)
	jtx.RequireTxSuccess(t, results[3])
	jtx.RequireTxFail(t, results[4], tx.TefPAST_SEQ)
	jtx.RequireTxFail(t, results[5], tx.TefALREADY_INITIALIZED)
	jtx.RequireValue(t, env, feed, 3, 0, "")
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := jtx.NewAccount("owner")

	// one writer per feed; a feed's updates are ordered by its sequence
	const writers, readers, rounds = 4, 4, 50
	feeds := make([]solana.PublicKey, writers)
	for w := range feeds {
		feeds[w] = env.Init(owner, uint16(w))
		jtx.RequireTxSuccess(t, env.Submit(oracletest.SetLicense(owner, feeds[w], entry.LicensePublic).Build()))
		jtx.RequireTxSuccess(t, env.Submit(oracletest.SetLimit(owner, feeds[w], 0, 1000)))
	}

	var wg sync.WaitGroup
	errs := make(chan error, writers*rounds+readers*rounds)

	for w := 0; w < writers; w++ {
		feed := feeds[w]
		start := env.Sequence(feed)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				txn := oracletest.SetValue(owner, feed, int64(i)).Timestamp(int64(i)).Sequence(start + uint32(i)).Build()
				if r := env.Engine().Apply(t.Context(), txn); !r.Result.IsSuccess() {
					errs <- fmt.Errorf("set value: %s", r.Result)
				}
			}
		}()
	}
	for r := 0; r < readers; r++ {
		reader := jtx.NewAccount(fmt.Sprintf("reader-%d", r))
		feed := feeds[r%writers]
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				reading, err := env.Pull(reader.PublicKey, feed)
				if err != nil {
					errs <- err
					continue
				}
				// value and timestamp are written together
				if reading.Value != reading.Timestamp {
					errs <- fmt.Errorf("torn read: %+v", reading)
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	for _, feed := range feeds {
		jtx.RequireValue(t, env, feed, rounds-1, rounds-1, "")
	}
}
