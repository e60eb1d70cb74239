package tx_test

import (
	"crypto/sha256"
	"encoding/json"
	"testing"

	"github.com/LeJamon/goOracled/internal/core/ledger/entry"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/LeJamon/goOracled/internal/core/tx/oracle"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	k, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return k
}

func TestInstructionDiscriminator(t *testing.T) {
	sum := sha256.Sum256([]byte("global:set_value"))
	d := tx.InstructionDiscriminator(tx.TypeSetValue)
	assert.Equal(t, sum[:8], d[:])

	seen := make(map[[8]byte]tx.Type)
	for _, typ := range tx.SupportedTypes() {
		d := tx.InstructionDiscriminator(typ)
		if prev, dup := seen[d]; dup {
			t.Fatalf("%s and %s share a discriminator", prev, typ)
		}
		seen[d] = typ
	}
}

func TestSigningMessage(t *testing.T) {
	key := newKey(t)
	feed := newKey(t).PublicKey()
	sv := oracle.NewSetValue(key.PublicKey(), feed, 50000, 1700000000, "Bitcoin")
	sv.Sequence = 0x01020304

	msg, err := tx.SigningMessage(sv)
	require.NoError(t, err)
	data, err := tx.InstructionData(sv)
	require.NoError(t, err)

	require.Len(t, msg, len(data)+2*solana.PublicKeyLength+4)
	assert.Equal(t, data, msg[:len(data)])
	assert.Equal(t, feed[:], msg[len(data):len(data)+32])
	assert.Equal(t, key.PublicKey().Bytes(), msg[len(data)+32:len(data)+64])
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, msg[len(data)+64:])

	// i64 value, i64 timestamp, u32-prefixed label
	assert.Len(t, data, 8+8+8+4+len("Bitcoin"))
}

func TestSignAndVerify(t *testing.T) {
	key := newKey(t)
	feed := newKey(t).PublicKey()

	t.Run("fills empty signer", func(t *testing.T) {
		sl := oracle.NewSetLicense(solana.PublicKey{}, feed, entry.LicensePublic)
		require.NoError(t, tx.Sign(sl, key))
		assert.Equal(t, key.PublicKey(), sl.Signer)
		assert.NoError(t, tx.VerifySignature(sl))
		assert.Equal(t, sl.Signature.String(), sl.ID())
	})

	t.Run("signer mismatch", func(t *testing.T) {
		other := newKey(t)
		sl := oracle.NewSetLicense(other.PublicKey(), feed, entry.LicensePublic)
		assert.ErrorIs(t, tx.Sign(sl, key), tx.ErrSignerMismatch)
	})

	t.Run("unsigned", func(t *testing.T) {
		sl := oracle.NewSetLicense(key.PublicKey(), feed, entry.LicensePublic)
		err := tx.VerifySignature(sl)
		assert.ErrorIs(t, err, tx.ErrBadSignature)
		assert.Equal(t, tx.TemBAD_SIGNATURE, tx.ResultOf(err))
	})

	t.Run("argument change invalidates", func(t *testing.T) {
		sl := oracle.NewSetLicense(key.PublicKey(), feed, entry.LicensePublic)
		require.NoError(t, tx.Sign(sl, key))
		sl.License = entry.LicensePrivate
		assert.ErrorIs(t, tx.VerifySignature(sl), tx.ErrBadSignature)
	})

	t.Run("sequence change invalidates", func(t *testing.T) {
		sl := oracle.NewSetLicense(key.PublicKey(), feed, entry.LicensePublic)
		sl.Sequence = 4
		require.NoError(t, tx.Sign(sl, key))
		sl.Sequence = 5
		assert.ErrorIs(t, tx.VerifySignature(sl), tx.ErrBadSignature)
	})
}

func TestJSONRoundTrip(t *testing.T) {
	key := newKey(t)
	feed := newKey(t).PublicKey()
	sub := newKey(t).PublicKey()

	orig := oracle.NewAddSubscription(key.PublicKey(), feed, sub)
	require.NoError(t, tx.Sign(orig, key))

	data, err := tx.ToJSON(orig)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "AddSubscription", fields["TransactionType"])
	assert.Equal(t, sub.String(), fields["Subscriber"])

	parsed, err := tx.FromJSON(data)
	require.NoError(t, err)
	require.IsType(t, &oracle.AddSubscription{}, parsed)
	assert.Equal(t, tx.TypeAddSubscription, parsed.TxType())
	assert.Equal(t, sub, parsed.(*oracle.AddSubscription).Subscriber)
	assert.NoError(t, tx.VerifySignature(parsed))
}

func TestFromJSONUnknownType(t *testing.T) {
	_, err := tx.FromJSON([]byte(`{"TransactionType":"Payment"}`))
	assert.ErrorIs(t, err, tx.ErrUnknownTransactionType)

	_, err = tx.FromJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestSupportedTypes(t *testing.T) {
	types := tx.SupportedTypes()
	require.Len(t, types, 8)
	for i, typ := range types {
		assert.Equal(t, tx.Type(i), typ)
		name, ok := tx.TypeFromName(typ.String())
		assert.True(t, ok)
		assert.Equal(t, typ, name)
		assert.NotEmpty(t, typ.InstructionName())
	}
	assert.True(t, tx.TypeGetDataFeed.IsReadOnly())
	assert.False(t, tx.TypeSetValue.IsReadOnly())
	assert.True(t, tx.TypeSetValue.IsSequenced())
	assert.False(t, tx.TypeInitialize.IsSequenced())
	assert.False(t, tx.TypeGetDataFeed.IsSequenced())
}
