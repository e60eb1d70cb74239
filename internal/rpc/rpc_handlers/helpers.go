package rpc_handlers

import (
	"errors"

	"github.com/LeJamon/goOracled/internal/core/ledger/service"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/LeJamon/goOracled/internal/rpc/rpc_types"
	"github.com/gagliardetto/solana-go"
)

var allApiVersions = []int{rpc_types.ApiVersion1, rpc_types.ApiVersion2}

// oracleService returns the oracle service of ctx
func oracleService(ctx *rpc_types.RpcContext) (rpc_types.OracleService, *rpc_types.RpcError) {
	if ctx.Services == nil || ctx.Services.Oracle == nil {
		return nil, rpc_types.RpcErrorInternal("Oracle service not available")
	}
	return ctx.Services.Oracle, nil
}

// parsePublicKey decodes a required base58 field
func parsePublicKey(field, value string) (solana.PublicKey, *rpc_types.RpcError) {
	if value == "" {
		return solana.PublicKey{}, rpc_types.RpcErrorMissingField(field)
	}
	k, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, rpc_types.RpcErrorPublicMalformed(field)
	}
	return k, nil
}

// rpcErrorFrom maps a service or engine error to its RPC error
func rpcErrorFrom(err error) *rpc_types.RpcError {
	switch {
	case errors.Is(err, tx.ErrNotFound):
		return rpc_types.RpcErrorFeedNotFound(err.Error())
	case errors.Is(err, tx.ErrUnauthorized):
		return rpc_types.RpcErrorNotAuthorized(err.Error())
	case errors.Is(err, tx.ErrInvalidAddress):
		return rpc_types.RpcErrorBadFeedAccount(err.Error())
	case errors.Is(err, service.ErrNoConsumer):
		return rpc_types.RpcErrorNotEnabled("pull")
	case errors.Is(err, tx.ErrUnknownTransactionType):
		return rpc_types.RpcErrorTxnTypeNotSupported(err.Error())
	default:
		return rpc_types.RpcErrorInternal(err.Error())
	}
}
