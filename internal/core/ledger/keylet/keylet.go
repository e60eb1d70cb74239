package keylet

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/LeJamon/goOracled/internal/core/ledger/entry"
	"github.com/gagliardetto/solana-go"
)

// FeedSeedSeparator sits between the owner key and the decimal feed id in
// the derivation seeds.
const FeedSeedSeparator = "_"

// ErrNoValidBump is returned when no bump seed in [0, 255] yields an
// off-curve address. This cannot happen for a sane program id.
var ErrNoValidBump = errors.New("keylet: no valid bump seed")

// Keylet represents an addressable location in the ledger state.
// It combines a type identifier with the 32-byte account address and the
// bump seed the address was derived with.
type Keylet struct {
	Type entry.Type
	Key  solana.PublicKey
	Bump uint8
}

func (k Keylet) String() string {
	return fmt.Sprintf("%s(%s)", k.Type, k.Key)
}

// feedSeeds returns the seeds for a data feed account: [owner, "_", decimal(feedID)].
func feedSeeds(owner solana.PublicKey, feedID uint16) [][]byte {
	return [][]byte{
		owner.Bytes(),
		[]byte(FeedSeedSeparator),
		[]byte(strconv.FormatUint(uint64(feedID), 10)),
	}
}

// DataFeed returns the keylet for the data feed account of (owner, feedID)
// under programID. The bump search starts at 255 and walks down until the
// candidate is off the ed25519 curve.
func DataFeed(programID, owner solana.PublicKey, feedID uint16) (Keylet, error) {
	addr, bump, err := solana.FindProgramAddress(feedSeeds(owner, feedID), programID)
	if err != nil {
		return Keylet{}, fmt.Errorf("%w: owner %s feed %d: %v", ErrNoValidBump, owner, feedID, err)
	}
	return Keylet{Type: entry.TypeDataFeed, Key: addr, Bump: bump}, nil
}

// MustDataFeed is DataFeed for callers that treat ErrNoValidBump as fatal.
func MustDataFeed(programID, owner solana.PublicKey, feedID uint16) Keylet {
	k, err := DataFeed(programID, owner, feedID)
	if err != nil {
		panic(err)
	}
	return k
}

// At returns a data feed keylet for a caller supplied address. The bump is
// unknown until the account is loaded.
func At(address solana.PublicKey) Keylet {
	return Keylet{Type: entry.TypeDataFeed, Key: address}
}

// Verify recomputes the address of (owner, feedID) with the given bump and
// compares it against address.
func Verify(programID, address, owner solana.PublicKey, feedID uint16, bump uint8) bool {
	seeds := append(feedSeeds(owner, feedID), []byte{bump})
	derived, err := solana.CreateProgramAddress(seeds, programID)
	if err != nil {
		return false
	}
	return derived.Equals(address)
}
