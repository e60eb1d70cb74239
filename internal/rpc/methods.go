package rpc

import (
	"github.com/LeJamon/goOracled/internal/rpc/rpc_handlers"
)

// registerAllMethods registers all RPC methods
func (s *Server) registerAllMethods() {
	// Server information
	s.registry.Register("server_info", &rpc_handlers.ServerInfoMethod{})
	s.registry.Register("ping", &rpc_handlers.PingMethod{})

	// Data feeds
	s.registry.Register("datafeed", &rpc_handlers.DataFeedMethod{})
	s.registry.Register("derive_address", &rpc_handlers.DeriveAddressMethod{})
	s.registry.Register("pull", &rpc_handlers.PullMethod{})

	// Transactions
	s.registry.Register("submit", &rpc_handlers.SubmitMethod{})
}
