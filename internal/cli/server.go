package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeJamon/goOracled/internal/config"
	"github.com/LeJamon/goOracled/internal/core/ledger/service"
	"github.com/LeJamon/goOracled/internal/core/ledger/state"
	"github.com/LeJamon/goOracled/internal/core/tx"
	"github.com/LeJamon/goOracled/internal/metrics"
	"github.com/LeJamon/goOracled/internal/rpc"
	"github.com/LeJamon/goOracled/internal/rpc/rpc_types"
	"github.com/LeJamon/goOracled/internal/storage"
	"github.com/LeJamon/goOracled/internal/storage/database"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var listenAddr string

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the oracle node",
	Long: `Start the oracle node which provides:
- HTTP JSON-RPC API endpoints
- WebSocket streams of applied transactions and reads
- Prometheus metrics at /metrics

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Set server as the default command
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serverCmd.RunE(cmd, args)
	}

	serverCmd.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (overrides rpc.address)")
}

// Node is an assembled oracle node: storage, state, service and the RPC
// handlers in front of them.
type Node struct {
	Service *service.Service
	Handler http.Handler

	ws      *rpc.WebSocketServer
	manager database.Manager
}

// NewNode builds a node from c.
func NewNode(c *config.Config, log *zap.Logger) (*Node, error) {
	programID, err := c.ProgramKey()
	if err != nil {
		return nil, err
	}
	consumerID, _, err := c.ConsumerKey()
	if err != nil {
		return nil, err
	}

	db, manager, err := storage.Open(c.Database.Backend, c.GetDatabasePath(), c.Database.Name)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	ledger, err := state.New(db, state.Config{CacheSize: c.Database.CacheSize})
	if err != nil {
		manager.Close()
		return nil, err
	}

	svcConfig := service.Config{
		Engine: tx.EngineConfig{
			ProgramID:             programID,
			RejectStaleTimestamps: c.Oracle.RejectStaleTimestamps,
			Workers:               c.Oracle.Workers,
		},
		ConsumerID: consumerID,
		Logger:     log,
	}

	var gatherer prometheus.Gatherer
	if c.RPC.Metrics {
		registry := prometheus.NewRegistry()
		m, err := metrics.New(registry)
		if err != nil {
			manager.Close()
			return nil, err
		}
		svcConfig.Observers = append(svcConfig.Observers, m)
		gatherer = registry
	}

	svc, err := service.New(ledger, svcConfig)
	if err != nil {
		manager.Close()
		return nil, err
	}

	server := rpc.NewServer(&rpc_types.ServiceContainer{Oracle: svc}, c.RPC.Timeout, log)
	ws := rpc.NewWebSocketServer(server, svc.Events())
	handler := rpc.NewHandler(server, ws, rpc.HandlerConfig{
		WebSocketPath: c.RPC.WebSocketPath,
		Gatherer:      gatherer,
	})

	return &Node{Service: svc, Handler: handler, ws: ws, manager: manager}, nil
}

// Close disconnects WebSocket clients and closes the database.
func (n *Node) Close() error {
	n.ws.Close()
	return n.manager.Close()
}

func runServer(cmd *cobra.Command, args []string) error {
	c, err := loadedConfig()
	if err != nil {
		return err
	}
	addr := c.RPC.Address
	if listenAddr != "" {
		addr = listenAddr
	}

	node, err := NewNode(c, logger)
	if err != nil {
		return err
	}
	defer node.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           node.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	info, _ := node.Service.GetServerInfo()
	logger.Info("oracle node started",
		zap.String("address", ln.Addr().String()),
		zap.String("websocket", c.RPC.WebSocketPath),
		zap.String("program_id", info.ProgramID.String()),
		zap.String("backend", c.Database.Backend),
		zap.Int("feeds", info.Feeds),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
