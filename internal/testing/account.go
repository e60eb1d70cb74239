package testing

import (
	"crypto/ed25519"
	"crypto/sha512"
	"fmt"
	"sync"

	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/gagliardetto/solana-go"
)

// Account represents a test identity with an ed25519 keypair.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// PrivateKey is the 64-byte ed25519 key (seed followed by public key).
	PrivateKey solana.PrivateKey

	// PublicKey is the identity other code sees.
	PublicKey solana.PublicKey
}

// NewAccount creates a new test account with a deterministic keypair derived from the name.
// Using the same name will always produce the same account, making tests reproducible.
func NewAccount(name string) *Account {
	hash := sha512.Sum512([]byte(name))
	key := solana.PrivateKey(ed25519.NewKeyFromSeed(hash[:ed25519.SeedSize]))
	return &Account{
		Name:       name,
		PrivateKey: key,
		PublicKey:  key.PublicKey(),
	}
}

// Human returns the base58 identity.
func (a *Account) Human() string {
	return a.PublicKey.String()
}

// String includes the name for test failure messages.
func (a *Account) String() string {
	return fmt.Sprintf("%s(%s)", a.Name, a.PublicKey)
}

// signers remembers who signed an update without a sequence, so Submit can
// sign again once it fills the sequence in.
var signers = struct {
	sync.Mutex
	bySignature map[solana.Signature]*Account
}{bySignature: make(map[solana.Signature]*Account)}

func signerOf(sig solana.Signature) *Account {
	signers.Lock()
	defer signers.Unlock()
	return signers.bySignature[sig]
}

// SignAs signs txn with acc's key without touching its Signer field, so a
// transaction can carry a signature that does not belong to its signer.
func SignAs(txn tx.Transaction, acc *Account) tx.Transaction {
	msg, err := tx.SigningMessage(txn)
	if err != nil {
		panic("signing message for " + txn.TxType().String() + ": " + err.Error())
	}
	sig, err := acc.PrivateKey.Sign(msg)
	if err != nil {
		panic("sign as " + acc.Name + ": " + err.Error())
	}
	common := txn.GetCommon()
	common.Signature = sig
	if txn.TxType().IsSequenced() && common.Sequence == 0 {
		signers.Lock()
		signers.bySignature[sig] = acc
		signers.Unlock()
	}
	return txn
}
