package rpc_types

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/LeJamon/goOracled/internal/core/ledger/keylet"
	"github.com/LeJamon/goOracled/internal/core/ledger/service"
	"github.com/LeJamon/goOracled/internal/core/pull"
	"github.com/gagliardetto/solana-go"
)

// API Version constants
const (
	ApiVersion1       = 1
	ApiVersion2       = 2
	DefaultApiVersion = ApiVersion1
)

// Role-based access control
type Role int

const (
	RoleGuest Role = iota
	RoleUser
	RoleAdmin
)

// OracleService is the part of the node service RPC handlers use
type OracleService interface {
	SubmitTransaction(ctx context.Context, txJSON []byte) (*service.SubmitResult, error)
	GetDataFeed(address solana.PublicKey) (*service.DataFeedInfo, error)
	DeriveAddress(owner solana.PublicKey, feedID uint16) (keylet.Keylet, error)
	Pull(ctx context.Context, endCaller, feed solana.PublicKey) (pull.Reading, error)
	GetServerInfo() (service.ServerInfo, error)
}

var _ OracleService = (*service.Service)(nil)

// ServiceContainer holds references to all services needed by RPC handlers
type ServiceContainer struct {
	Oracle OracleService
}

// RpcContext contains request-specific information
type RpcContext struct {
	Context    context.Context
	Role       Role
	ApiVersion int
	ClientIP   string
	Services   *ServiceContainer
}

// MethodHandler is implemented by every RPC method
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)
	RequiredRole() Role
	SupportedApiVersions() []int
}

// MethodRegistry maps method names to handlers
type MethodRegistry struct {
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	handler, exists := r.methods[name]
	return handler, exists
}

// List returns the registered method names, sorted
func (r *MethodRegistry) List() []string {
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// JsonRpcRequest is a JSON-RPC request.
// Format: {"method": "method_name", "params": [{...}]}
type JsonRpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// Subscription streams for WebSocket clients
type SubscriptionType string

const (
	SubTransactions SubscriptionType = "transactions"
	SubReads        SubscriptionType = "reads"
)

// SubscriptionRequest is the body of a subscribe or unsubscribe command
type SubscriptionRequest struct {
	Streams []SubscriptionType `json:"streams,omitempty"`

	// Feeds restricts the transactions stream to these data feed addresses
	Feeds []string `json:"feeds,omitempty"`
}

// WebSocketResponse is the envelope of a reply to a WebSocket command
type WebSocketResponse struct {
	Status       string      `json:"status"`
	Type         string      `json:"type"`
	Result       interface{} `json:"result,omitempty"`
	ID           interface{} `json:"id,omitempty"`
	Error        string      `json:"error,omitempty"`
	ErrorCode    int         `json:"error_code,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}
