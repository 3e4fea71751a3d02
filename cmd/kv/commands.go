package kv

import (
	"fmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	readCmd = &cobra.Command{
		Use:   "read [key]",
		Short: "Reads the value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, err := rpcStore.Read(namespace(), key)
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		},
	}
	writeCmd = &cobra.Command{
		Use:   "write [key] [value]",
		Short: "Writes the value of a key",
		Long:  "Writes the value of a key. Without --overwrite the write fails if the key already exists.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if err := rpcStore.Write(namespace(), key, value, viper.GetBool("overwrite")); err != nil {
				return err
			}
			fmt.Println("write successfully")
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := rpcStore.Delete(namespace(), key); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
)

func init() {
	writeCmd.Flags().BoolP("overwrite", "o", false, "Replace the value if the key already exists")
}
