package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goOracled/internal/rpc/rpc_types"
)

// SubmitMethod handles the submit RPC method. The transaction must already
// be signed.
type SubmitMethod struct{}

func (m *SubmitMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		TxJson json.RawMessage `json:"tx_json"`
	}
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}
	if len(request.TxJson) == 0 {
		return nil, rpc_types.RpcErrorMissingField("tx_json")
	}

	svc, rpcErr := oracleService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	result, err := svc.SubmitTransaction(ctx.Context, request.TxJson)
	if err != nil {
		if rpcErr := rpcErrorFrom(err); rpcErr.Code != rpc_types.RpcINTERNAL {
			return nil, rpcErr
		}
		return nil, rpc_types.RpcErrorInvalidParams("Invalid tx_json: " + err.Error())
	}

	var txJsonMap map[string]interface{}
	if err := json.Unmarshal(request.TxJson, &txJsonMap); err != nil {
		txJsonMap = map[string]interface{}{}
	}

	response := map[string]interface{}{
		"engine_result":         result.Result.String(),
		"engine_result_code":    int(result.Result),
		"engine_result_message": result.Message,
		"tx_json":               txJsonMap,
		"id":                    result.ID,
		"applied":               result.Applied,
	}
	if result.Metadata != nil {
		response["meta"] = result.Metadata
	}
	if result.Reading != nil {
		response["reading"] = result.Reading
	}
	return response, nil
}

func (m *SubmitMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleUser
}

func (m *SubmitMethod) SupportedApiVersions() []int {
	return allApiVersions
}
