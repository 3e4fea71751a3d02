package ns

import (
	"fmt"
	"github.com/ValentinKolb/qdb/cmd/util"
	"github.com/ValentinKolb/qdb/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcStore client.IRPCStore

	// NamespaceCommands represents the namespace command group
	NamespaceCommands = &cobra.Command{
		Use:   "ns",
		Short: "Create and delete namespaces",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) (err error) {
			rpcStore, err = util.NewRPCStoreFromFlags(cmd)
			return err
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if rpcStore == nil {
				return nil
			}
			return rpcStore.Close()
		},
	}

	createCmd = &cobra.Command{
		Use:   "create [namespace]",
		Short: "Creates an empty namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.CreateNamespace(args[0]); err != nil {
				return err
			}
			fmt.Printf("namespace %q created\n", args[0])
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [namespace]",
		Short: "Deletes a namespace and all its keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.DeleteNamespace(args[0]); err != nil {
				return err
			}
			fmt.Printf("namespace %q deleted\n", args[0])
			return nil
		},
	}
)

func init() {
	// Add common RPC flags to the namespace commands
	util.SetupRPCClientFlags(NamespaceCommands)

	// Add subcommands
	NamespaceCommands.AddCommand(createCmd)
	NamespaceCommands.AddCommand(deleteCmd)
}
