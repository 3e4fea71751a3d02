package kv

import (
	"github.com/ValentinKolb/qdb/cmd/util"
	"github.com/ValentinKolb/qdb/rpc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcStore client.IRPCStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key operations on a namespace",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: closeKVClient,
	}
)

func init() {
	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	KeyValueCommands.PersistentFlags().StringP("namespace", "n", "default", util.WrapString("The namespace the key belongs to"))

	// Add subcommands
	KeyValueCommands.AddCommand(readCmd)
	KeyValueCommands.AddCommand(writeCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient initializes the RPC store client
func setupKVClient(cmd *cobra.Command, _ []string) (err error) {
	rpcStore, err = util.NewRPCStoreFromFlags(cmd)
	return err
}

// closeKVClient closes the connections of the RPC store client
func closeKVClient(_ *cobra.Command, _ []string) error {
	if rpcStore == nil {
		return nil
	}
	return rpcStore.Close()
}

// namespace returns the namespace selected with --namespace
func namespace() string {
	return viper.GetString("namespace")
}
