package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LeJamon/goOracled/internal/core/ledger/entry"
	"github.com/LeJamon/goOracled/internal/core/ledger/service"
	"github.com/LeJamon/goOracled/internal/core/ledger/state"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/LeJamon/goOracled/internal/core/tx/oracle"
	"github.com/LeJamon/goOracled/internal/metrics"
	"github.com/LeJamon/goOracled/internal/rpc/rpc_types"
	"github.com/LeJamon/goOracled/internal/storage/database/memory"
	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProgramID = solana.MustPublicKeyFromBase58("9UYoqKcSHFhTBRoiYBcrkabsBbUKAdx68TZGLKokZKR1")

type testNode struct {
	svc      *service.Service
	http     *httptest.Server
	ws       *WebSocketServer
	client   *Client
	consumer solana.PublicKey
}

func newTestNode(t *testing.T) *testNode {
	t.Helper()

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	ledger, err := state.New(memory.NewDB(), state.Config{})
	require.NoError(t, err)

	consumer := solana.NewWallet().PublicKey()
	svc, err := service.New(ledger, service.Config{
		Engine:     tx.EngineConfig{ProgramID: testProgramID},
		ConsumerID: consumer,
		Observers:  []tx.Observer{m},
	})
	require.NoError(t, err)

	server := NewServer(&rpc_types.ServiceContainer{Oracle: svc}, 5*time.Second, nil)
	ws := NewWebSocketServer(server, svc.Events())
	httpServer := httptest.NewServer(NewHandler(server, ws, HandlerConfig{WebSocketPath: "/ws", Gatherer: reg}))
	t.Cleanup(func() {
		ws.Close()
		httpServer.Close()
	})

	return &testNode{
		svc:      svc,
		http:     httpServer,
		ws:       ws,
		client:   NewClient(httpServer.URL, 5*time.Second),
		consumer: consumer,
	}
}

func (n *testNode) submit(t *testing.T, key solana.PrivateKey, transaction tx.Transaction) *SubmitResponse {
	t.Helper()
	if c := transaction.GetCommon(); transaction.TxType().IsSequenced() && c.Sequence == 0 {
		if info, err := n.svc.GetDataFeed(c.DataFeed); err == nil {
			c.Sequence = info.Sequence
		}
	}
	require.NoError(t, tx.Sign(transaction, key))
	res, err := n.client.Submit(context.Background(), transaction)
	require.NoError(t, err)
	return res
}

func postRaw(t *testing.T, url, body string) map[string]interface{} {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	result, ok := out["result"].(map[string]interface{})
	require.True(t, ok)
	return result
}

func TestServer_Envelope(t *testing.T) {
	node := newTestNode(t)

	t.Run("ping", func(t *testing.T) {
		result := postRaw(t, node.http.URL, `{"method":"ping","params":[{}]}`)
		assert.Equal(t, "success", result["status"])
	})

	t.Run("unknown method", func(t *testing.T) {
		result := postRaw(t, node.http.URL, `{"method":"account_info","params":[{}]}`)
		assert.Equal(t, "error", result["status"])
		assert.Equal(t, "unknownCmd", result["error"])
		request := result["request"].(map[string]interface{})
		assert.Equal(t, "account_info", request["command"])
	})

	t.Run("invalid json", func(t *testing.T) {
		result := postRaw(t, node.http.URL, `{"method":`)
		assert.Equal(t, "jsonInvalid", result["error"])
	})

	t.Run("missing method", func(t *testing.T) {
		result := postRaw(t, node.http.URL, `{"params":[{}]}`)
		assert.Equal(t, "missingCommand", result["error"])
	})

	t.Run("bad api version", func(t *testing.T) {
		result := postRaw(t, node.http.URL, `{"method":"ping","params":[{"api_version":9}]}`)
		assert.Equal(t, "invalidApiVersion", result["error"])
	})

	t.Run("get defaults to server_info", func(t *testing.T) {
		resp, err := http.Get(node.http.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), testProgramID.String())
	})

	t.Run("method not allowed", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, node.http.URL, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestServer_FeedLifecycle(t *testing.T) {
	node := newTestNode(t)
	ctx := context.Background()
	owner := solana.NewWallet().PrivateKey

	derived, err := node.client.DeriveAddress(ctx, owner.PublicKey(), 180)
	require.NoError(t, err)
	feed := solana.MustPublicKeyFromBase58(derived.DataFeed)

	k, err := node.svc.DeriveAddress(owner.PublicKey(), 180)
	require.NoError(t, err)
	assert.Equal(t, k.Key, feed)
	assert.Equal(t, k.Bump, derived.Bump)

	res := node.submit(t, owner, oracle.NewInitialize(owner.PublicKey(), feed, 180))
	require.Equal(t, "tesSUCCESS", res.EngineResult, res.EngineResultMessage)
	assert.True(t, res.Applied)
	require.NotNil(t, res.Meta)
	require.Len(t, res.Meta.AffectedNodes, 1)
	assert.Equal(t, "CreatedNode", res.Meta.AffectedNodes[0].NodeType)

	res = node.submit(t, owner, oracle.NewSetValue(owner.PublicKey(), feed, 50000, 1700000000, "coinbase"))
	require.Equal(t, "tesSUCCESS", res.EngineResult)

	// a stranger may not write
	stranger := solana.NewWallet().PrivateKey
	res = node.submit(t, stranger, oracle.NewSetValue(stranger.PublicKey(), feed, 1, 1, ""))
	assert.Equal(t, "tecNO_PERMISSION", res.EngineResult)
	assert.False(t, res.Applied)

	info, err := node.client.DataFeed(ctx, feed)
	require.NoError(t, err)
	assert.Equal(t, owner.PublicKey(), info.Owner)
	assert.Equal(t, entry.LicensePrivate, info.License)

	// the description never carries the reading
	raw := postRaw(t, node.http.URL, `{"method":"datafeed","params":[{"data_feed":"`+feed.String()+`"}]}`)
	described := raw["data_feed"].(map[string]interface{})
	assert.NotContains(t, described, "value")
	assert.NotContains(t, described, "timestamp")

	// private feed: the consumer is not subscribed
	_, err = node.client.Pull(ctx, feed, stranger.PublicKey())
	var rpcErr *rpc_types.RpcError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, "notAuthorized", rpcErr.ErrorString)

	res = node.submit(t, owner, oracle.NewAddSubscription(owner.PublicKey(), feed, node.consumer))
	require.Equal(t, "tesSUCCESS", res.EngineResult)

	info, err = node.client.DataFeed(ctx, feed)
	require.NoError(t, err)
	assert.Equal(t, 1, info.SubscriberCount)
	assert.Empty(t, info.Subscribers)
	assert.Equal(t, uint32(3), info.Sequence)

	reading, err := node.client.Pull(ctx, feed, stranger.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, int64(50000), reading.Value)
	assert.Equal(t, int64(1700000000), reading.Timestamp)
	assert.Equal(t, "Private", reading.License)

	info2, err := node.client.ServerInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(1), info2["feeds"])
}

func TestServer_Errors(t *testing.T) {
	node := newTestNode(t)
	ctx := context.Background()
	var rpcErr *rpc_types.RpcError

	_, err := node.client.DataFeed(ctx, solana.NewWallet().PublicKey())
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, "feedNotFound", rpcErr.ErrorString)

	result := postRaw(t, node.http.URL, `{"method":"datafeed","params":[{"data_feed":"not a key"}]}`)
	assert.Equal(t, "publicMalformed", result["error"])

	result = postRaw(t, node.http.URL, `{"method":"derive_address","params":[{"owner":"`+testProgramID.String()+`"}]}`)
	assert.Equal(t, "invalidParams", result["error"])

	result = postRaw(t, node.http.URL, `{"method":"submit","params":[{"tx_json":{"TransactionType":"Payment"}}]}`)
	assert.Equal(t, "txnTypeNotSupported", result["error"])

	result = postRaw(t, node.http.URL, `{"method":"submit","params":[{}]}`)
	assert.Equal(t, "invalidParams", result["error"])

	// unsigned transactions are rejected by the engine
	owner := solana.NewWallet().PublicKey()
	unsigned := oracle.NewInitialize(owner, solana.NewWallet().PublicKey(), 1)
	res, err := node.client.Submit(ctx, unsigned)
	require.NoError(t, err)
	assert.Equal(t, "temBAD_SIGNATURE", res.EngineResult)
}

func TestServer_Metrics(t *testing.T) {
	node := newTestNode(t)
	owner := solana.NewWallet().PrivateKey
	k, err := node.svc.DeriveAddress(owner.PublicKey(), 1)
	require.NoError(t, err)
	node.submit(t, owner, oracle.NewInitialize(owner.PublicKey(), k.Key, 1))

	resp, err := http.Get(node.http.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `oracled_tx_total{result="tesSUCCESS",type="Initialize"} 1`)
}

func dialWS(t *testing.T, node *testNode) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(node.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocket_Commands(t *testing.T) {
	node := newTestNode(t)
	conn := dialWS(t, node)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"command": "ping", "id": 1}))
	msg := readJSON(t, conn)
	assert.Equal(t, "success", msg["status"])
	assert.Equal(t, float64(1), msg["id"])

	// submit needs the HTTP endpoint
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"command": "submit", "id": 2}))
	msg = readJSON(t, conn)
	assert.Equal(t, "error", msg["status"])
	assert.Equal(t, "commandUntrusted", msg["error"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"id": 3}))
	msg = readJSON(t, conn)
	assert.Equal(t, "missingCommand", msg["error"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"command": "subscribe", "streams": []string{"ledger"}}))
	msg = readJSON(t, conn)
	assert.Equal(t, "malformedStream", msg["error"])
}

func TestWebSocket_TransactionStream(t *testing.T) {
	node := newTestNode(t)
	owner := solana.NewWallet().PrivateKey
	watched, err := node.svc.DeriveAddress(owner.PublicKey(), 1)
	require.NoError(t, err)
	other, err := node.svc.DeriveAddress(owner.PublicKey(), 2)
	require.NoError(t, err)

	conn := dialWS(t, node)
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"command": "subscribe",
		"id":      "sub",
		"feeds":   []string{watched.Key.String()},
	}))
	msg := readJSON(t, conn)
	require.Equal(t, "success", msg["status"])

	node.submit(t, owner, oracle.NewInitialize(owner.PublicKey(), other.Key, 2))
	node.submit(t, owner, oracle.NewInitialize(owner.PublicKey(), watched.Key, 1))

	msg = readJSON(t, conn)
	assert.Equal(t, "transaction", msg["type"])
	assert.Equal(t, watched.Key.String(), msg["data_feed"])
	assert.Equal(t, "Initialize", msg["transaction_type"])
	assert.Equal(t, "tesSUCCESS", msg["engine_result"])
	assert.Equal(t, true, msg["applied"])
}
