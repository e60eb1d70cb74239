package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goOracled/internal/rpc/rpc_types"
)

// DeriveAddressMethod handles the derive_address RPC method
type DeriveAddressMethod struct{}

func (m *DeriveAddressMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Owner  string  `json:"owner"`
		FeedID *uint16 `json:"feed_id"`
	}
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	owner, rpcErr := parsePublicKey("owner", request.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if request.FeedID == nil {
		return nil, rpc_types.RpcErrorMissingField("feed_id")
	}
	svc, rpcErr := oracleService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	k, err := svc.DeriveAddress(owner, *request.FeedID)
	if err != nil {
		return nil, rpcErrorFrom(err)
	}

	return map[string]interface{}{
		"owner":     owner.String(),
		"feed_id":   *request.FeedID,
		"data_feed": k.Key.String(),
		"bump":      k.Bump,
	}, nil
}

func (m *DeriveAddressMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

func (m *DeriveAddressMethod) SupportedApiVersions() []int {
	return allApiVersions
}
