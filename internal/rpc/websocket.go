package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LeJamon/goOracled/internal/core/ledger/service"
	"github.com/LeJamon/goOracled/internal/rpc/rpc_types"
	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsMaxMessageSize = 512 * 1024
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = 54 * time.Second
	wsWriteWait      = 10 * time.Second
	wsSendBuffer     = 256
)

// EventSource delivers engine events to registered hooks
type EventSource interface {
	AddHooks(hooks *service.EventHooks) (remove func())
}

// WebSocketServer handles WebSocket connections: commands are answered like
// JSON-RPC calls and subscribed streams are pushed as they happen.
type WebSocketServer struct {
	upgrader    websocket.Upgrader
	registry    *rpc_types.MethodRegistry
	services    *rpc_types.ServiceContainer
	connections map[uint64]*WebSocketConnection
	mu          sync.RWMutex
	nextID      atomic.Uint64
	timeout     time.Duration
	log         *zap.Logger
	removeHooks func()
}

// WebSocketConnection represents a single WebSocket connection
type WebSocketConnection struct {
	ID   uint64
	conn *websocket.Conn
	send chan []byte

	mu      sync.RWMutex
	streams map[rpc_types.SubscriptionType]bool
	feeds   map[solana.PublicKey]bool // empty means every feed

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWebSocketServer creates a WebSocket server sharing the methods of
// server and streaming the events of events
func NewWebSocketServer(server *Server, events EventSource) *WebSocketServer {
	ws := &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		registry:    server.registry,
		services:    server.services,
		connections: make(map[uint64]*WebSocketConnection),
		timeout:     server.timeout,
		log:         server.log.Named("ws"),
	}
	if events != nil {
		ws.removeHooks = events.AddHooks(&service.EventHooks{
			OnTransaction: ws.publishTransaction,
			OnRead:        ws.publishRead,
		})
	}
	return ws
}

// ServeHTTP handles WebSocket upgrade requests
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.log.Debug("upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	wsConn := &WebSocketConnection{
		ID:      ws.nextID.Add(1),
		conn:    conn,
		send:    make(chan []byte, wsSendBuffer),
		streams: make(map[rpc_types.SubscriptionType]bool),
		feeds:   make(map[solana.PublicKey]bool),
		ctx:     ctx,
		cancel:  cancel,
	}

	ws.mu.Lock()
	ws.connections[wsConn.ID] = wsConn
	ws.mu.Unlock()

	go ws.writePump(wsConn)
	go ws.readPump(wsConn, getClientIP(r))
}

// ConnectionCount returns the number of open connections
func (ws *WebSocketServer) ConnectionCount() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return len(ws.connections)
}

// Close drops every connection and stops receiving events
func (ws *WebSocketServer) Close() {
	if ws.removeHooks != nil {
		ws.removeHooks()
	}
	ws.mu.Lock()
	conns := make([]*WebSocketConnection, 0, len(ws.connections))
	for _, c := range ws.connections {
		conns = append(conns, c)
	}
	ws.mu.Unlock()
	for _, c := range conns {
		ws.closeConnection(c)
	}
}

func (ws *WebSocketServer) readPump(wsConn *WebSocketConnection, clientIP string) {
	defer ws.closeConnection(wsConn)

	wsConn.conn.SetReadLimit(wsMaxMessageSize)
	wsConn.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	wsConn.conn.SetPongHandler(func(string) error {
		return wsConn.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, message, err := wsConn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.log.Debug("read failed", zap.Uint64("conn", wsConn.ID), zap.Error(err))
			}
			return
		}
		ws.handleMessage(wsConn, clientIP, message)
	}
}

func (ws *WebSocketServer) writePump(wsConn *WebSocketConnection) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-wsConn.ctx.Done():
			wsConn.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			wsConn.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case message := <-wsConn.send:
			wsConn.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := wsConn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				ws.log.Debug("send failed", zap.Uint64("conn", wsConn.ID), zap.Error(err))
				go ws.closeConnection(wsConn)
				return
			}
		case <-ticker.C:
			wsConn.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := wsConn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				go ws.closeConnection(wsConn)
				return
			}
		}
	}
}

func (ws *WebSocketServer) closeConnection(wsConn *WebSocketConnection) {
	ws.mu.Lock()
	_, open := ws.connections[wsConn.ID]
	delete(ws.connections, wsConn.ID)
	ws.mu.Unlock()
	if !open {
		return
	}
	wsConn.cancel()
	// give writePump a moment to send the close frame
	time.AfterFunc(wsWriteWait, func() { wsConn.conn.Close() })
}

// handleMessage processes a single command; command and id sit next to the
// parameters at the top level
func (ws *WebSocketServer) handleMessage(wsConn *WebSocketConnection, clientIP string, message []byte) {
	var cmdMap map[string]json.RawMessage
	if err := json.Unmarshal(message, &cmdMap); err != nil {
		ws.sendError(wsConn, rpc_types.RpcErrorInvalidParams("Invalid JSON: "+err.Error()), nil)
		return
	}

	var id interface{}
	if raw, ok := cmdMap["id"]; ok {
		_ = json.Unmarshal(raw, &id)
	}

	raw, ok := cmdMap["command"]
	if !ok {
		ws.sendError(wsConn, rpc_types.NewRpcError(rpc_types.RpcCOMMAND_MISSING, "missingCommand", "missingCommand", "Missing command field"), id)
		return
	}
	var command string
	if err := json.Unmarshal(raw, &command); err != nil || command == "" {
		ws.sendError(wsConn, rpc_types.NewRpcError(rpc_types.RpcCOMMAND_IS_NOT_A_STRING, "commandNotString", "commandNotString", "Command must be a string"), id)
		return
	}

	delete(cmdMap, "command")
	delete(cmdMap, "id")
	params, _ := json.Marshal(cmdMap)

	var result interface{}
	var rpcErr *rpc_types.RpcError
	switch command {
	case "subscribe":
		result, rpcErr = ws.subscribe(wsConn, params, true)
	case "unsubscribe":
		result, rpcErr = ws.subscribe(wsConn, params, false)
	default:
		result, rpcErr = ws.execute(wsConn, clientIP, command, params)
	}

	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, id)
		return
	}
	ws.sendJSON(wsConn, rpc_types.WebSocketResponse{
		Status: "success",
		Type:   "response",
		Result: result,
		ID:     id,
	})
}

func (ws *WebSocketServer) execute(wsConn *WebSocketConnection, clientIP, command string, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	handler, ok := ws.registry.Get(command)
	if !ok {
		return nil, rpc_types.RpcErrorMethodNotFound(command)
	}
	if handler.RequiredRole() > rpc_types.RoleGuest {
		return nil, rpc_types.NewRpcError(rpc_types.RpcCOMMAND_UNTRUSTED, "commandUntrusted", "commandUntrusted",
			"Method '"+command+"' is not available over WebSocket")
	}

	ctx, cancel := wsConn.ctx, context.CancelFunc(func() {})
	if ws.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, ws.timeout)
	}
	defer cancel()

	return handler.Handle(&rpc_types.RpcContext{
		Context:    ctx,
		Role:       rpc_types.RoleGuest,
		ApiVersion: rpc_types.DefaultApiVersion,
		ClientIP:   clientIP,
		Services:   ws.services,
	}, params)
}

func (ws *WebSocketServer) subscribe(wsConn *WebSocketConnection, params json.RawMessage, add bool) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.SubscriptionRequest
	if err := json.Unmarshal(params, &request); err != nil {
		return nil, rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	if len(request.Streams) == 0 && len(request.Feeds) == 0 {
		return nil, rpc_types.RpcErrorInvalidParams("streams or feeds is required")
	}

	feeds := make([]solana.PublicKey, 0, len(request.Feeds))
	for _, f := range request.Feeds {
		k, err := solana.PublicKeyFromBase58(f)
		if err != nil {
			return nil, rpc_types.RpcErrorPublicMalformed("feeds")
		}
		feeds = append(feeds, k)
	}
	for _, s := range request.Streams {
		if s != rpc_types.SubTransactions && s != rpc_types.SubReads {
			return nil, rpc_types.RpcErrorStreamMalformed(fmt.Sprintf("Unknown stream %q", s))
		}
	}

	wsConn.mu.Lock()
	defer wsConn.mu.Unlock()
	for _, s := range request.Streams {
		if add {
			wsConn.streams[s] = true
		} else {
			delete(wsConn.streams, s)
		}
	}
	for _, f := range feeds {
		if add {
			wsConn.feeds[f] = true
		} else {
			delete(wsConn.feeds, f)
		}
	}
	// subscribing to feeds alone implies the transactions stream
	if add && len(feeds) > 0 {
		wsConn.streams[rpc_types.SubTransactions] = true
	}
	return map[string]interface{}{}, nil
}

// wants reports whether the connection is subscribed to stream for feed
func (c *WebSocketConnection) wants(stream rpc_types.SubscriptionType, feed solana.PublicKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.streams[stream] {
		return false
	}
	return len(c.feeds) == 0 || c.feeds[feed]
}

type transactionMessage struct {
	Type string `json:"type"`
	service.TransactionEvent
}

type readMessage struct {
	Type string `json:"type"`
	service.ReadEvent
}

func (ws *WebSocketServer) publishTransaction(event service.TransactionEvent) {
	ws.broadcast(rpc_types.SubTransactions, event.DataFeed, transactionMessage{Type: "transaction", TransactionEvent: event})
}

func (ws *WebSocketServer) publishRead(event service.ReadEvent) {
	ws.broadcast(rpc_types.SubReads, event.DataFeed, readMessage{Type: "read", ReadEvent: event})
}

func (ws *WebSocketServer) broadcast(stream rpc_types.SubscriptionType, feed solana.PublicKey, message interface{}) {
	ws.mu.RLock()
	targets := make([]*WebSocketConnection, 0, len(ws.connections))
	for _, c := range ws.connections {
		if c.wants(stream, feed) {
			targets = append(targets, c)
		}
	}
	ws.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		ws.log.Error("failed to marshal event", zap.Error(err))
		return
	}
	for _, c := range targets {
		ws.enqueue(c, data)
	}
}

func (ws *WebSocketServer) sendError(wsConn *WebSocketConnection, rpcErr *rpc_types.RpcError, id interface{}) {
	ws.sendJSON(wsConn, rpc_types.WebSocketResponse{
		Status:       "error",
		Type:         "response",
		ID:           id,
		Error:        rpcErr.ErrorString,
		ErrorCode:    rpcErr.Code,
		ErrorMessage: rpcErr.Message,
	})
}

func (ws *WebSocketServer) sendJSON(wsConn *WebSocketConnection, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		ws.log.Error("failed to marshal response", zap.Error(err))
		return
	}
	ws.enqueue(wsConn, data)
}

// enqueue never blocks the caller; a client that cannot keep up is dropped
func (ws *WebSocketServer) enqueue(wsConn *WebSocketConnection, data []byte) {
	select {
	case <-wsConn.ctx.Done():
	case wsConn.send <- data:
	default:
		ws.log.Warn("send buffer full, closing connection", zap.Uint64("conn", wsConn.ID))
		go ws.closeConnection(wsConn)
	}
}
