package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LeJamon/goOracled/internal/core/ledger/service"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/LeJamon/goOracled/internal/rpc/rpc_types"
	"github.com/gagliardetto/solana-go"
)

// Client calls a JSON-RPC endpoint
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a client for the endpoint at url
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

// Call invokes method with params and decodes the result into out. A result
// with status "error" is returned as *rpc_types.RpcError.
func (c *Client) Call(ctx context.Context, method string, params, out interface{}) error {
	request := map[string]interface{}{"method": method}
	if params != nil {
		request["params"] = []interface{}{params}
	}
	body, err := json.Marshal(request)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: http %d: %s", method, resp.StatusCode, bytes.TrimSpace(data))
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	var status struct {
		Status string `json:"status"`
		rpc_types.RpcError
	}
	if err := json.Unmarshal(envelope.Result, &status); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	if status.Status != "success" {
		rpcErr := status.RpcError
		return &rpcErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}

// SubmitResponse is the result of submit
type SubmitResponse struct {
	EngineResult        string        `json:"engine_result"`
	EngineResultCode    int           `json:"engine_result_code"`
	EngineResultMessage string        `json:"engine_result_message"`
	ID                  string        `json:"id"`
	Applied             bool          `json:"applied"`
	Meta                *tx.Metadata  `json:"meta,omitempty"`
	Reading             *ReadingReply `json:"reading,omitempty"`
}

// ReadingReply is a reading as returned over RPC
type ReadingReply struct {
	Value     int64  `json:"value"`
	Timestamp int64  `json:"timestamp"`
	License   string `json:"license"`
}

// Submit sends a signed transaction
func (c *Client) Submit(ctx context.Context, t tx.Transaction) (*SubmitResponse, error) {
	txJSON, err := tx.ToJSON(t)
	if err != nil {
		return nil, err
	}
	var out SubmitResponse
	if err := c.Call(ctx, "submit", map[string]json.RawMessage{"tx_json": txJSON}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DataFeed describes the data feed at address
func (c *Client) DataFeed(ctx context.Context, address solana.PublicKey) (*service.DataFeedInfo, error) {
	var out struct {
		DataFeed service.DataFeedInfo `json:"data_feed"`
	}
	if err := c.Call(ctx, "datafeed", map[string]string{"data_feed": address.String()}, &out); err != nil {
		return nil, err
	}
	return &out.DataFeed, nil
}

// DeriveResponse is the result of derive_address
type DeriveResponse struct {
	Owner    string `json:"owner"`
	FeedID   uint16 `json:"feed_id"`
	DataFeed string `json:"data_feed"`
	Bump     uint8  `json:"bump"`
}

// DeriveAddress derives the data feed address of (owner, feedID)
func (c *Client) DeriveAddress(ctx context.Context, owner solana.PublicKey, feedID uint16) (*DeriveResponse, error) {
	var out DeriveResponse
	params := map[string]interface{}{"owner": owner.String(), "feed_id": feedID}
	if err := c.Call(ctx, "derive_address", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pull reads the data feed through the server's consumer program
func (c *Client) Pull(ctx context.Context, feed, caller solana.PublicKey) (*ReadingReply, error) {
	params := map[string]string{"data_feed": feed.String()}
	if !caller.IsZero() {
		params["caller"] = caller.String()
	}
	var out ReadingReply
	if err := c.Call(ctx, "pull", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ServerInfo returns the server_info "info" object
func (c *Client) ServerInfo(ctx context.Context) (map[string]interface{}, error) {
	var out struct {
		Info map[string]interface{} `json:"info"`
	}
	if err := c.Call(ctx, "server_info", nil, &out); err != nil {
		return nil, err
	}
	return out.Info, nil
}
