// Package client implements the RPC client of qdb.
// It provides an implementation of the store.IStore interface that sends every
// operation as one request to a qdb server and waits for its response.
//
// Key Components:
//
//   - NewRPCStore: Factory function that connects a client transport and returns an
//     IRPCStore. Failure responses of the server are returned as *store.Error with the
//     code store.RetCRemote and the message of the server.
//
//   - IRPCStore.Do: Sends a raw request and returns the raw response. This is useful
//     for tools that want to show the server reply as is.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  Endpoints:              []string{"localhost:8080"},
//	  TimeoutSecond:          5,
//	  ConnectionsPerEndpoint: 1,
//	}
//
//	// Create store client
//	s, err := client.NewRPCStore(config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//	  panic(err)
//	}
//	defer s.Close()
//
//	// Use the store
//	_ = s.CreateNamespace("users")
//	_ = s.Write("users", "alice", "admin", true)
//	value, err := s.Read("users", "alice")
//
// Thread Safety:
//
//	All client implementations are thread-safe and can be used concurrently from
//	multiple goroutines. Each request uses one pooled connection exclusively, so
//	ConnectionsPerEndpoint bounds the number of requests in flight.
package client
