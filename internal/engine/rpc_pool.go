package engine

// This file serves as the main entry point for the EndpointPool module.
// The implementation is split into multiple files:
// - rpc_pool_core.go: pool state, options and rotation/ranking accessors
// - rpc_pool_build.go: concurrent probe fan-out and aggregation
// - rpc_probe.go: single-endpoint probe with POA quirk detection
// - rpc_transport_http.go / rpc_transport_ws.go: the two transport variants
// - rpc_conn.go: go-ethereum rpc client adapter shared by both transports
// - rpc_rotator.go: atomic round-robin cursor
