package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/LeJamon/goOracled/internal/rpc/rpc_types"
	"go.uber.org/zap"
)

// maxRequestBody bounds the size of a JSON-RPC request body.
const maxRequestBody = 1 << 20

// Server handles HTTP JSON-RPC requests
type Server struct {
	registry *rpc_types.MethodRegistry
	services *rpc_types.ServiceContainer
	timeout  time.Duration
	log      *zap.Logger
}

// NewServer creates a new RPC server with the given timeout. A zero timeout
// leaves requests bounded by the client only.
func NewServer(services *rpc_types.ServiceContainer, timeout time.Duration, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	server := &Server{
		registry: rpc_types.NewMethodRegistry(),
		services: services,
		timeout:  timeout,
		log:      log.Named("rpc"),
	}

	server.registerAllMethods()

	return server
}

// Methods returns the registered method names
func (s *Server) Methods() []string {
	return s.registry.List()
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		s.handleGetRequest(w, r)
	case http.MethodPost:
		s.handlePostRequest(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGetRequest processes GET requests with query parameters
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("command")
	if method == "" {
		method = "server_info"
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	result, rpcErr := s.executeMethod(method, nil, ctx)
	s.writeResponse(w, map[string]interface{}{"command": method}, result, rpcErr)
}

// handlePostRequest processes POST requests with a JSON-RPC payload
func (s *Server) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.writeError(w, nil, "internal", "Failed to read request body")
		return
	}
	defer r.Body.Close()

	var request rpc_types.JsonRpcRequest
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeError(w, nil, "jsonInvalid", "Invalid JSON: "+err.Error())
		return
	}
	if request.Method == "" {
		s.writeError(w, nil, "missingCommand", "Missing method field")
		return
	}

	// params is an array holding one object
	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	if params != nil {
		var head struct {
			ApiVersion *int `json:"api_version"`
		}
		if err := json.Unmarshal(params, &head); err == nil && head.ApiVersion != nil {
			ctx.ApiVersion = *head.ApiVersion
		}
	}

	result, rpcErr := s.executeMethod(request.Method, params, ctx)

	requestObj := map[string]interface{}{}
	if params != nil {
		_ = json.Unmarshal(params, &requestObj)
	}
	requestObj["command"] = request.Method

	s.writeResponse(w, requestObj, result, rpcErr)
}

func (s *Server) requestContext(r *http.Request) (*rpc_types.RpcContext, context.CancelFunc) {
	base, cancel := r.Context(), context.CancelFunc(func() {})
	if s.timeout > 0 {
		base, cancel = context.WithTimeout(base, s.timeout)
	}
	return &rpc_types.RpcContext{
		Context:    base,
		Role:       rpc_types.RoleUser,
		ApiVersion: rpc_types.DefaultApiVersion,
		ClientIP:   getClientIP(r),
		Services:   s.services,
	}, cancel
}

// executeMethod executes an RPC method with the given parameters
func (s *Server) executeMethod(method string, params json.RawMessage, ctx *rpc_types.RpcContext) (interface{}, *rpc_types.RpcError) {
	handler, exists := s.registry.Get(method)
	if !exists {
		return nil, rpc_types.RpcErrorMethodNotFound(method)
	}

	if ctx.Role < handler.RequiredRole() {
		return nil, rpc_types.NewRpcError(rpc_types.RpcCOMMAND_UNTRUSTED, "commandUntrusted", "commandUntrusted",
			"Method '"+method+"' requires higher privileges")
	}

	if versions := handler.SupportedApiVersions(); len(versions) > 0 && !slices.Contains(versions, ctx.ApiVersion) {
		return nil, rpc_types.RpcErrorInvalidApiVersion(strconv.Itoa(ctx.ApiVersion))
	}

	start := time.Now()
	result, rpcErr := handler.Handle(ctx, params)
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("client", ctx.ClientIP),
		zap.Duration("elapsed", time.Since(start)),
	}
	if rpcErr != nil {
		s.log.Debug("request failed", append(fields, zap.String("error", rpcErr.ErrorString))...)
	} else {
		s.log.Debug("request", fields...)
	}
	return result, rpcErr
}

// writeResponse writes a JSON-RPC response; result.status is "success" or
// "error"
func (s *Server) writeResponse(w http.ResponseWriter, request interface{}, result interface{}, rpcErr *rpc_types.RpcError) {
	response := make(map[string]interface{})

	if rpcErr != nil {
		resultObj := map[string]interface{}{
			"status":        "error",
			"error":         rpcErr.ErrorString,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		}
		if request != nil {
			resultObj["request"] = request
		}
		response["result"] = resultObj
	} else if resultMap, ok := result.(map[string]interface{}); ok {
		resultMap["status"] = "success"
		response["result"] = resultMap
	} else {
		response["result"] = map[string]interface{}{
			"status": "success",
			"data":   result,
		}
	}

	s.write(w, response)
}

// writeError writes an error response for requests that never reached a method
func (s *Server) writeError(w http.ResponseWriter, request interface{}, errorCode string, message string) {
	resultObj := map[string]interface{}{
		"status":        "error",
		"error":         errorCode,
		"error_message": message,
	}
	if request != nil {
		resultObj["request"] = request
	}
	s.write(w, map[string]interface{}{"result": resultObj})
}

func (s *Server) write(w http.ResponseWriter, response map[string]interface{}) {
	responseData, err := json.Marshal(response)
	if err != nil {
		s.log.Error("failed to marshal response", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(responseData)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
