package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goOracled/internal/rpc/rpc_types"
	"github.com/gagliardetto/solana-go"
)

// PullMethod handles the pull RPC method: a read through the configured
// consumer program. Authorization is against the consumer, not the caller.
type PullMethod struct{}

func (m *PullMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		DataFeed string `json:"data_feed"`
		Caller   string `json:"caller,omitempty"`
	}
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	feed, rpcErr := parsePublicKey("data_feed", request.DataFeed)
	if rpcErr != nil {
		return nil, rpcErr
	}
	var caller solana.PublicKey
	if request.Caller != "" {
		if caller, rpcErr = parsePublicKey("caller", request.Caller); rpcErr != nil {
			return nil, rpcErr
		}
	}
	svc, rpcErr := oracleService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	reading, err := svc.Pull(ctx.Context, caller, feed)
	if err != nil {
		return nil, rpcErrorFrom(err)
	}

	return map[string]interface{}{
		"data_feed": feed.String(),
		"value":     reading.Value,
		"timestamp": reading.Timestamp,
		"license":   reading.License.String(),
	}, nil
}

func (m *PullMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

func (m *PullMethod) SupportedApiVersions() []int {
	return allApiVersions
}
