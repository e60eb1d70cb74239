package tx

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Common errors
var (
	ErrMissingRequiredField   = errors.New("missing required field")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrSignerMismatch         = errors.New("signing key does not match signer")
)

// Transaction is the interface that all transaction types must implement
type Transaction interface {
	// TxType returns the transaction type
	TxType() Type

	// GetCommon returns the common transaction fields
	GetCommon() *Common

	// Validate checks if the transaction is well formed (preflight)
	Validate() error

	// InstructionArgs returns the borsh-encodable argument struct of the
	// instruction. It is hashed into the signing message.
	InstructionArgs() any

	// Apply executes the transaction against the view in ctx
	Apply(ctx *ApplyContext) Result
}

// Common contains fields common to all transaction types
type Common struct {
	TransactionType string `json:"TransactionType"`

	// Signer is the identity that authorized the transaction
	Signer solana.PublicKey `json:"Signer"`

	// DataFeed is the address of the data feed account the transaction targets
	DataFeed solana.PublicKey `json:"DataFeed"`

	// Sequence must equal the data feed's sequence for updates, and be zero
	// for Initialize and reads. It is part of the signed message, so a signed
	// update applies at most once.
	Sequence uint32 `json:"Sequence"`

	// Signature is the ed25519 signature of Signer over SigningMessage
	Signature solana.Signature `json:"Signature"`
}

// Validate validates the common fields
func (c *Common) Validate() error {
	if c.TransactionType == "" {
		return Errorf(TemMALFORMED, "TransactionType is required")
	}
	if c.Signer.IsZero() {
		return Errorf(TemBAD_SIGNER, "Signer is required")
	}
	if c.DataFeed.IsZero() {
		return Errorf(TemMALFORMED, "DataFeed is required")
	}
	return nil
}

// ID returns the transaction identifier, the base58 signature.
func (c *Common) ID() string {
	return c.Signature.String()
}

// BaseTx is embedded by every transaction type.
type BaseTx struct {
	Common
	txType Type
}

// NewBaseTx creates a new base transaction
func NewBaseTx(txType Type, signer, dataFeed solana.PublicKey) *BaseTx {
	return &BaseTx{
		Common: Common{
			TransactionType: txType.String(),
			Signer:          signer,
			DataFeed:        dataFeed,
		},
		txType: txType,
	}
}

// TxType returns the transaction type
func (b *BaseTx) TxType() Type {
	return b.txType
}

// GetCommon returns the common transaction fields
func (b *BaseTx) GetCommon() *Common {
	return &b.Common
}

// Validate validates the base transaction
func (b *BaseTx) Validate() error {
	if b.TransactionType != b.txType.String() {
		return Errorf(TemMALFORMED, "TransactionType %q does not match %s", b.TransactionType, b.txType)
	}
	if err := b.Common.Validate(); err != nil {
		return err
	}
	if b.txType.IsSequenced() != (b.Sequence != 0) {
		return Errorf(TemBAD_SEQUENCE, "%s with sequence %d", b.txType, b.Sequence)
	}
	return nil
}

// Errorf returns an error carrying r. errors.Is on it matches r's sentinel.
func Errorf(r Result, format string, args ...any) error {
	return fmt.Errorf("%w: %s", r.Err(), fmt.Sprintf(format, args...))
}

// InstructionDiscriminator returns sha256("global:" + name)[:8] for t.
func InstructionDiscriminator(t Type) [8]byte {
	sum := sha256.Sum256([]byte("global:" + t.InstructionName()))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// InstructionData returns the discriminator followed by the borsh encoding
// of the transaction's arguments.
func InstructionData(t Transaction) ([]byte, error) {
	d := InstructionDiscriminator(t.TxType())
	buf := new(bytes.Buffer)
	buf.Write(d[:])
	if err := bin.NewBorshEncoder(buf).Encode(t.InstructionArgs()); err != nil {
		return nil, fmt.Errorf("encode %s arguments: %w", t.TxType(), err)
	}
	return buf.Bytes(), nil
}

// SigningMessage returns instruction data || data feed address || signer ||
// sequence (u32 little endian).
func SigningMessage(t Transaction) ([]byte, error) {
	data, err := InstructionData(t)
	if err != nil {
		return nil, err
	}
	c := t.GetCommon()
	msg := make([]byte, 0, len(data)+2*solana.PublicKeyLength+4)
	msg = append(msg, data...)
	msg = append(msg, c.DataFeed[:]...)
	msg = append(msg, c.Signer[:]...)
	msg = binary.LittleEndian.AppendUint32(msg, c.Sequence)
	return msg, nil
}

// Sign fills in the signer (when empty) and signs the transaction with key.
func Sign(t Transaction, key solana.PrivateKey) error {
	c := t.GetCommon()
	pub := key.PublicKey()
	if c.Signer.IsZero() {
		c.Signer = pub
	} else if !c.Signer.Equals(pub) {
		return fmt.Errorf("%w: signer %s, key %s", ErrSignerMismatch, c.Signer, pub)
	}

	msg, err := SigningMessage(t)
	if err != nil {
		return err
	}
	sig, err := key.Sign(msg)
	if err != nil {
		return fmt.Errorf("sign %s: %w", t.TxType(), err)
	}
	c.Signature = sig
	return nil
}

// VerifySignature checks the signature against the signer.
func VerifySignature(t Transaction) error {
	c := t.GetCommon()
	if c.Signature.IsZero() {
		return Errorf(TemBAD_SIGNATURE, "transaction is not signed")
	}
	msg, err := SigningMessage(t)
	if err != nil {
		return Errorf(TemMALFORMED, "%v", err)
	}
	if !c.Signature.Verify(c.Signer, msg) {
		return Errorf(TemBAD_SIGNATURE, "signature does not match signer %s", c.Signer)
	}
	return nil
}
