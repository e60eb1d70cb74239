package rpc_types

// RpcError represents an RPC error with code and message
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Type        string `json:"type"`
	Message     string `json:"error_message,omitempty"`
}

func (e RpcError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorString
}

// RPC error codes
const (
	// Universal errors
	RpcUNKNOWN          = -1
	RpcJSON_RPC         = -32600
	RpcMETHOD_NOT_FOUND = -32601
	RpcINVALID_PARAMS   = -32602
	RpcINTERNAL         = -32603
	RpcPARSE_ERROR      = -32700

	// General purpose errors
	RpcGENERAL           = 1
	RpcMISSING_COMMAND   = 2
	RpcCOMMAND_UNTRUSTED = 3
	RpcTOO_BUSY          = 6

	// Feed errors
	RpcFEED_NOT_FOUND   = 19
	RpcFEED_MALFORMED   = 50
	RpcNOT_AUTHORIZED   = 53
	RpcBAD_FEED_ACCOUNT = 54

	// Subscription errors
	RpcSTREAM_MALFORMED = 26

	RpcNOT_ENABLED = 31

	// WebSocket specific
	RpcCOMMAND_MISSING         = 34
	RpcCOMMAND_IS_NOT_A_STRING = 35

	RpcINVALID_API_VERSION = 38

	RpcTXN_TYPE_NOT_SUPPORTED = 42
	RpcINVALID_FIELD          = 43

	RpcPUBLIC_MALFORMED = 62 // Public key is malformed
)

// NewRpcError builds an error whose error string and type are the same
func NewRpcError(code int, error, errorType, message string) *RpcError {
	return &RpcError{
		Code:        code,
		ErrorString: error,
		Type:        errorType,
		Message:     message,
	}
}

func RpcErrorUnknown(message string) *RpcError {
	return NewRpcError(RpcUNKNOWN, "unknown", "unknown", message)
}

func RpcErrorInvalidParams(message string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", message)
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcMETHOD_NOT_FOUND, "unknownCmd", "unknownCmd", "Unknown method: "+method)
}

func RpcErrorInternal(message string) *RpcError {
	return NewRpcError(RpcINTERNAL, "internal", "internal", message)
}

func RpcErrorInvalidApiVersion(version string) *RpcError {
	return NewRpcError(RpcINVALID_API_VERSION, "invalidApiVersion", "invalidApiVersion", "Invalid API version: "+version)
}

func RpcErrorNotEnabled(feature string) *RpcError {
	return NewRpcError(RpcNOT_ENABLED, "notEnabled", "notEnabled", "Feature not enabled: "+feature)
}

func RpcErrorFeedNotFound(message string) *RpcError {
	return NewRpcError(RpcFEED_NOT_FOUND, "feedNotFound", "feedNotFound", message)
}

func RpcErrorBadFeedAccount(message string) *RpcError {
	return NewRpcError(RpcBAD_FEED_ACCOUNT, "badFeedAccount", "badFeedAccount", message)
}

func RpcErrorNotAuthorized(message string) *RpcError {
	return NewRpcError(RpcNOT_AUTHORIZED, "notAuthorized", "notAuthorized", message)
}

func RpcErrorTxnTypeNotSupported(message string) *RpcError {
	return NewRpcError(RpcTXN_TYPE_NOT_SUPPORTED, "txnTypeNotSupported", "txnTypeNotSupported", message)
}

func RpcErrorStreamMalformed(message string) *RpcError {
	return NewRpcError(RpcSTREAM_MALFORMED, "malformedStream", "malformedStream", message)
}

// RpcErrorMissingField returns an error for a missing required field
func RpcErrorMissingField(field string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", "Missing field '"+field+"'.")
}

// RpcErrorInvalidField returns an error for an invalid field value
func RpcErrorInvalidField(field string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", "invalidParams", "Invalid field '"+field+"'.")
}

// RpcErrorPublicMalformed returns an error for a field that is not a base58 public key
func RpcErrorPublicMalformed(field string) *RpcError {
	return NewRpcError(RpcPUBLIC_MALFORMED, "publicMalformed", "publicMalformed", "Field '"+field+"' is not a valid public key.")
}
