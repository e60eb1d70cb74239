package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goOracled/internal/rpc/rpc_types"
)

// DataFeedMethod handles the datafeed RPC method. It describes the account
// without its reading; use pull or a signed GetDataFeed for the value.
type DataFeedMethod struct{}

func (m *DataFeedMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		DataFeed string `json:"data_feed"`
	}
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	address, rpcErr := parsePublicKey("data_feed", request.DataFeed)
	if rpcErr != nil {
		return nil, rpcErr
	}
	svc, rpcErr := oracleService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	info, err := svc.GetDataFeed(address)
	if err != nil {
		return nil, rpcErrorFrom(err)
	}

	return map[string]interface{}{
		"data_feed": info,
	}, nil
}

func (m *DataFeedMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

func (m *DataFeedMethod) SupportedApiVersions() []int {
	return allApiVersions
}
