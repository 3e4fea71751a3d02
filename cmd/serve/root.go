package serve

import (
	"fmt"
	cmdUtil "github.com/ValentinKolb/qdb/cmd/util"
	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/ValentinKolb/qdb/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the qdb server",
		Long:    `Start the qdb server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is QDB_<flag> (e.g. QDB_MAX_CONNECTIONS=100)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the server will listen (e.g. localhost:8080, /tmp/qdb.sock, ...)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for reading a request and writing its response (0 = none)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "max-connections"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The number of connections served at the same time (0 = unlimited)"))

	key = "max-string-bytes"
	ServeCmd.PersistentFlags().Uint64(key, 64*1024*1024, cmdUtil.WrapString("The largest string accepted in a request (in bytes, 0 = unlimited). Larger requests are rejected before any memory is allocated"))

	key = "namespaces"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Comma-separated list of namespaces that are created when the server starts"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("If set, prometheus metrics are served on this address under /metrics (e.g. localhost:9100)"))

	key = "write-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket write buffer (in KB, 0 = OS default, ignored for http)"))

	key = "read-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket read buffer (in KB, 0 = OS default, ignored for http)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval (in seconds, 0 = disabled, only for tcp)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, -1, cmdUtil.WrapString("The linger time (in seconds, -1 = OS default, only for tcp)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	config, err := readConfig()
	if err != nil {
		return err
	}
	*serveCmdConfig = *config
	return nil
}

// readConfig builds the server configuration from viper
func readConfig() (*common.ServerConfig, error) {
	config := &common.ServerConfig{
		Endpoint:        viper.GetString("endpoint"),
		TimeoutSecond:   viper.GetInt64("timeout"),
		MaxConnections:  viper.GetInt("max-connections"),
		MaxStringBytes:  viper.GetUint64("max-string-bytes"),
		MetricsEndpoint: viper.GetString("metrics-endpoint"),
		LogLevel:        viper.GetString("log-level"),
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("tcp-linger"),
		},
	}

	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint must not be empty")
	}
	if config.TimeoutSecond < 0 {
		return nil, fmt.Errorf("invalid timeout %d (expected >= 0)", config.TimeoutSecond)
	}
	if config.MaxConnections < 0 {
		return nil, fmt.Errorf("invalid max-connections %d (expected >= 0)", config.MaxConnections)
	}

	// parse namespaces
	for _, ns := range strings.Split(viper.GetString("namespaces"), ",") {
		if ns = strings.TrimSpace(ns); ns != "" {
			config.Namespaces = append(config.Namespaces, ns)
		}
	}

	return config, nil
}

// run starts the qdb server and blocks until it is stopped by a signal
func run(_ *cobra.Command, _ []string) error {
	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		cmdUtil.GetSerializer(serveCmdConfig.MaxStringBytes),
	)

	// Stop the server on SIGINT and SIGTERM
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		if _, ok := <-sig; ok {
			server.Logger.Infof("shutting down")
			_ = serv.Close()
		}
	}()

	return serv.Serve()
}
