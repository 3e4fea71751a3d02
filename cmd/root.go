package cmd

import (
	"fmt"
	"github.com/ValentinKolb/qdb/cmd/kv"
	"github.com/ValentinKolb/qdb/cmd/ns"
	"github.com/ValentinKolb/qdb/cmd/serve"
	"github.com/ValentinKolb/qdb/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.1.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "qdb",
		Short: "namespaced key-value store",
		Long: fmt.Sprintf(`qdb (v%s)

A small key-value store with namespaces, served over a compact
binary request/response protocol on tcp, unix sockets or http.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of qdb",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("qdb v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(ns.NamespaceCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix, http)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
