package util

import (
	"github.com/ValentinKolb/qdb/rpc/client"
	"github.com/spf13/cobra"
)

// NewRPCStoreFromFlags binds the flags of cmd and connects a new RPC store with them
func NewRPCStoreFromFlags(cmd *cobra.Command) (client.IRPCStore, error) {
	// Bind command flags to viper
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}

	// Get client configuration and transport
	config := GetClientConfig()
	t, err := GetTransport()
	if err != nil {
		return nil, err
	}

	return client.NewRPCStore(*config, t, GetSerializer(config.MaxStringBytes))
}
