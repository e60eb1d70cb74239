package tx

import (
	"errors"

	"github.com/LeJamon/goOracled/internal/core/ledger/entry/entries"
	"github.com/LeJamon/goOracled/internal/core/ledger/keylet"
	"github.com/LeJamon/goOracled/internal/core/tx/sle"
	"github.com/gagliardetto/solana-go"
)

// LoadDataFeed reads the data feed account at address and checks that the
// address re-derives from the stored owner, feed id and bump.
func LoadDataFeed(view LedgerView, programID, address solana.PublicKey) (*entries.DataFeed, error) {
	data, err := view.Read(keylet.At(address))
	if err != nil {
		return nil, Errorf(TefINTERNAL, "read %s: %v", address, err)
	}
	if data == nil {
		return nil, Errorf(TecNO_ENTRY, "no data feed at %s", address)
	}

	feed, err := sle.ParseDataFeed(data)
	if err != nil {
		if errors.Is(err, sle.ErrDiscriminatorMismatch) {
			return nil, Errorf(TefBAD_ADDRESS, "account %s is not a data feed", address)
		}
		return nil, Errorf(TefINTERNAL, "decode %s: %v", address, err)
	}

	if !keylet.Verify(programID, address, feed.Owner, feed.FeedID, feed.Bump) {
		return nil, Errorf(TefBAD_ADDRESS, "%s does not derive from owner %s feed %d bump %d",
			address, feed.Owner, feed.FeedID, feed.Bump)
	}
	return feed, nil
}

// StoreDataFeed serializes feed and updates the existing account at k.
func StoreDataFeed(view LedgerView, k keylet.Keylet, feed *entries.DataFeed) error {
	data, err := sle.SerializeDataFeed(feed)
	if err != nil {
		return Errorf(TefINTERNAL, "%v", err)
	}
	if err := view.Update(k, data); err != nil {
		return Errorf(TefINTERNAL, "update %s: %v", k.Key, err)
	}
	return nil
}

// CreateDataFeed serializes feed and inserts it at k. An occupied address
// fails with TefALREADY_INITIALIZED.
func CreateDataFeed(view LedgerView, k keylet.Keylet, feed *entries.DataFeed) error {
	data, err := sle.SerializeDataFeed(feed)
	if err != nil {
		return Errorf(TefINTERNAL, "%v", err)
	}
	if err := view.Insert(k, data); err != nil {
		if errors.Is(err, ErrEntryExists) {
			return Errorf(TefALREADY_INITIALIZED, "%s", k.Key)
		}
		return Errorf(TefINTERNAL, "insert %s: %v", k.Key, err)
	}
	return nil
}
