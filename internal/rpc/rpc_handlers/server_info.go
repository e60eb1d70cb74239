package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goOracled/internal/rpc/rpc_types"
)

// BuildVersion is reported by server_info and the version command
var BuildVersion = "0.1.0-goOracled"

// ServerInfoMethod handles the server_info RPC method
type ServerInfoMethod struct{}

func (m *ServerInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	svc, rpcErr := oracleService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	info, err := svc.GetServerInfo()
	if err != nil {
		return nil, rpc_types.RpcErrorInternal(err.Error())
	}

	return map[string]interface{}{
		"info": map[string]interface{}{
			"build_version":           BuildVersion,
			"program_id":              info.ProgramID.String(),
			"consumer_id":             info.ConsumerID,
			"feeds":                   info.Feeds,
			"cache_hits":              info.CacheHits,
			"cache_misses":            info.CacheMisses,
			"reject_stale_timestamps": info.RejectStaleTimestamps,
			"transaction_types":       info.TransactionTypes,
			"uptime":                  info.UptimeSeconds,
		},
	}, nil
}

func (m *ServerInfoMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

func (m *ServerInfoMethod) SupportedApiVersions() []int {
	return allApiVersions
}
