package tx

import (
	"errors"
	"fmt"
)

// Result represents a transaction result code
type Result int

// Transaction result codes.
// These are organized by category: tes, tec, ter, tef, tem
const (
	// tesSUCCESS (0)
	TesSUCCESS Result = 0

	// tec codes (100-199)
	// The transaction was well formed but the ledger state rejected it
	TecNO_PERMISSION         Result = 139
	TecNO_ENTRY              Result = 140
	TecVALUE_OUT_OF_RANGE    Result = 180
	TecSTALE_TIMESTAMP       Result = 181
	TecSUBSCRIBER_LIMIT      Result = 182
	TecSUBSCRIPTION_REQUIRED Result = 183

	// ter codes (-99 to -1)
	// The transaction may apply once the account state catches up
	TerPRE_SEQ Result = -92

	// tef codes (-199 to -100)
	// The transaction cannot be applied against this ledger
	TefFAILURE             Result = -199
	TefPAST_SEQ            Result = -190
	TefALREADY_INITIALIZED Result = -180
	TefBAD_ADDRESS         Result = -179
	TefINTERNAL            Result = -192

	// tem codes (-299 to -200)
	// Malformed transaction
	TemMALFORMED     Result = -299
	TemBAD_LIMIT     Result = -293
	TemBAD_SIGNATURE Result = -282
	TemBAD_SEQUENCE  Result = -283
	TemBAD_LICENSE   Result = -250
	TemBAD_SIGNER    Result = -249
	TemUNKNOWN_TYPE  Result = -248
)

// Sentinel errors. Every Result other than TesSUCCESS unwraps to exactly one
// of these through Result.Err.
var (
	ErrAlreadyInitialized = errors.New("data feed already initialized")
	ErrNotFound           = errors.New("data feed not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidAddress     = errors.New("invalid data feed address")
	ErrMalformed          = errors.New("malformed transaction")
	ErrBadSignature       = errors.New("bad signature")
	ErrValueOutOfRange    = errors.New("value out of range")
	ErrStaleTimestamp     = errors.New("stale timestamp")
	ErrSubscriberLimit    = errors.New("subscriber limit reached")
	ErrBadSequence        = errors.New("bad sequence")
	ErrInternal           = errors.New("internal error")
)

// String returns the string representation of the result code
func (r Result) String() string {
	switch r {
	case TesSUCCESS:
		return "tesSUCCESS"
	case TecNO_PERMISSION:
		return "tecNO_PERMISSION"
	case TecNO_ENTRY:
		return "tecNO_ENTRY"
	case TecVALUE_OUT_OF_RANGE:
		return "tecVALUE_OUT_OF_RANGE"
	case TecSTALE_TIMESTAMP:
		return "tecSTALE_TIMESTAMP"
	case TecSUBSCRIBER_LIMIT:
		return "tecSUBSCRIBER_LIMIT"
	case TecSUBSCRIPTION_REQUIRED:
		return "tecSUBSCRIPTION_REQUIRED"
	case TerPRE_SEQ:
		return "terPRE_SEQ"
	case TefFAILURE:
		return "tefFAILURE"
	case TefPAST_SEQ:
		return "tefPAST_SEQ"
	case TefALREADY_INITIALIZED:
		return "tefALREADY_INITIALIZED"
	case TefBAD_ADDRESS:
		return "tefBAD_ADDRESS"
	case TefINTERNAL:
		return "tefINTERNAL"
	case TemMALFORMED:
		return "temMALFORMED"
	case TemBAD_LIMIT:
		return "temBAD_LIMIT"
	case TemBAD_SIGNATURE:
		return "temBAD_SIGNATURE"
	case TemBAD_SEQUENCE:
		return "temBAD_SEQUENCE"
	case TemBAD_LICENSE:
		return "temBAD_LICENSE"
	case TemBAD_SIGNER:
		return "temBAD_SIGNER"
	case TemUNKNOWN_TYPE:
		return "temUNKNOWN_TYPE"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// IsSuccess returns true if the result indicates success
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true if this is a tec (state rejected) code
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTer returns true if this is a ter (retry) code
func (r Result) IsTer() bool {
	return r >= -99 && r <= -1
}

// IsTef returns true if this is a tef (failure) code
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTem returns true if this is a tem (malformed) code
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// Message returns a human-readable message for the result code
func (r Result) Message() string {
	switch r {
	case TesSUCCESS:
		return "The transaction was applied."
	case TecNO_PERMISSION:
		return "Signer is not permitted to perform this operation on the data feed."
	case TecNO_ENTRY:
		return "No data feed account exists at this address."
	case TecVALUE_OUT_OF_RANGE:
		return "Value is outside the configured limit of the data feed."
	case TecSTALE_TIMESTAMP:
		return "Timestamp is older than the stored reading."
	case TecSUBSCRIBER_LIMIT:
		return "The subscriber set of the data feed is full."
	case TecSUBSCRIPTION_REQUIRED:
		return "The data feed is private and the caller is not a subscriber."
	case TerPRE_SEQ:
		return "Sequence is ahead of the data feed sequence."
	case TefFAILURE:
		return "Failed to apply."
	case TefPAST_SEQ:
		return "Sequence has already been used on this data feed."
	case TefALREADY_INITIALIZED:
		return "A data feed account already exists at this address."
	case TefBAD_ADDRESS:
		return "Data feed address does not match its owner, feed id and bump."
	case TefINTERNAL:
		return "Internal error."
	case TemMALFORMED:
		return "Malformed transaction."
	case TemBAD_LIMIT:
		return "Malformed: limit minimum exceeds maximum."
	case TemBAD_SIGNATURE:
		return "Malformed: missing or invalid signature."
	case TemBAD_SEQUENCE:
		return "Malformed: sequence is required on data feed updates and forbidden otherwise."
	case TemBAD_LICENSE:
		return "Malformed: unknown license value."
	case TemBAD_SIGNER:
		return "Malformed: signer is required."
	case TemUNKNOWN_TYPE:
		return "Malformed: unknown transaction type."
	default:
		return "Unknown result."
	}
}

// Err returns nil for TesSUCCESS and a *ResultError otherwise.
func (r Result) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return &ResultError{Result: r}
}

// ResultError carries a failed Result. It unwraps to the matching sentinel
// error so callers can use errors.Is.
type ResultError struct {
	Result Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Result, e.Result.Message())
}

func (e *ResultError) Unwrap() error {
	switch e.Result {
	case TefALREADY_INITIALIZED:
		return ErrAlreadyInitialized
	case TecNO_ENTRY:
		return ErrNotFound
	case TecNO_PERMISSION, TecSUBSCRIPTION_REQUIRED:
		return ErrUnauthorized
	case TefBAD_ADDRESS:
		return ErrInvalidAddress
	case TemBAD_SIGNATURE, TemBAD_SIGNER:
		return ErrBadSignature
	case TecVALUE_OUT_OF_RANGE:
		return ErrValueOutOfRange
	case TecSTALE_TIMESTAMP:
		return ErrStaleTimestamp
	case TecSUBSCRIBER_LIMIT:
		return ErrSubscriberLimit
	case TerPRE_SEQ, TefPAST_SEQ, TemBAD_SEQUENCE:
		return ErrBadSequence
	case TemMALFORMED, TemBAD_LIMIT, TemBAD_LICENSE, TemUNKNOWN_TYPE:
		return ErrMalformed
	default:
		return ErrInternal
	}
}

// ResultOf extracts the Result carried by err, or TefINTERNAL when err does
// not carry one.
func ResultOf(err error) Result {
	if err == nil {
		return TesSUCCESS
	}
	var re *ResultError
	if errors.As(err, &re) {
		return re.Result
	}
	return TefINTERNAL
}

// ParseResult maps a result code name back to its Result.
func ParseResult(name string) (Result, bool) {
	r, ok := resultsByName[name]
	return r, ok
}

var resultsByName = func() map[string]Result {
	all := []Result{
		TesSUCCESS,
		TecNO_PERMISSION, TecNO_ENTRY, TecVALUE_OUT_OF_RANGE, TecSTALE_TIMESTAMP,
		TecSUBSCRIBER_LIMIT, TecSUBSCRIPTION_REQUIRED,
		TerPRE_SEQ,
		TefFAILURE, TefPAST_SEQ, TefALREADY_INITIALIZED, TefBAD_ADDRESS, TefINTERNAL,
		TemMALFORMED, TemBAD_LIMIT, TemBAD_SIGNATURE, TemBAD_SEQUENCE, TemBAD_LICENSE, TemBAD_SIGNER,
		TemUNKNOWN_TYPE,
	}
	m := make(map[string]Result, len(all))
	for _, r := range all {
		m[r.String()] = r
	}
	return m
}()
