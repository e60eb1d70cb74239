// Package testing provides test infrastructure for oracle transaction testing.
//
// # Overview
//
// The testing package provides:
//   - TestEnv: a test environment over an in-memory (or pebble) state ledger
//   - Account: deterministic ed25519 identities derived from a name
//   - Assertions: helpers for result codes and stored feed state
//
// Fluent builders for the oracle transactions live in the oracle subpackage.
//
// # Basic Usage
//
//	func TestSetValue(t *testing.T) {
//	    env := testing.NewTestEnv(t)
//	    alice := testing.NewAccount("alice")
//
//	    feed := env.Init(alice, 1)
//	    result := env.Submit(oracletest.SetValue(alice, feed, 50000).
//	        Timestamp(env.Now().Unix()).
//	        Label("Bitcoin").
//	        Build())
//	    testing.RequireTxSuccess(t, result)
//	    testing.RequireValue(t, env, feed, 50000, env.Now().Unix(), "Bitcoin")
//	}
//
// # Signatures
//
// Signatures are always verified. Builders sign with the signer's key; SignAs
// attaches a signature made by any account, which is how tests forge one.
//
// # Sequences
//
// Every update carries its data feed's sequence. Submit fills in a missing
// one and signs again with the account that signed; builders take an
// explicit Sequence for tests that need a particular one. A transaction
// that was submitted keeps its sequence, so submitting it again replays it.
//
// # Clock Control
//
// The environment carries a ManualClock for feed timestamps:
//
//	env.AdvanceTime(10 * time.Second)
//	env.Now().Unix()
package testing
