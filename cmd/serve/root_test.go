package serve

import (
	"testing"

	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
)

// setConfig resets viper and sets the given keys
func setConfig(t *testing.T, values map[string]any) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	for k, v := range values {
		viper.Set(k, v)
	}
}

func TestReadConfig(t *testing.T) {
	setConfig(t, map[string]any{
		"endpoint":         "/tmp/qdb.sock",
		"timeout":          7,
		"max-connections":  32,
		"max-string-bytes": 1024,
		"namespaces":       "users, sessions,,",
		"metrics-endpoint": "localhost:9100",
		"log-level":        "debug",
		"write-buffer":     4,
		"read-buffer":      8,
		"tcp-nodelay":      true,
		"tcp-keepalive":    30,
		"tcp-linger":       -1,
	})

	got, err := readConfig()
	if err != nil {
		t.Fatalf("readConfig failed: %v", err)
	}

	want := &common.ServerConfig{
		Endpoint:        "/tmp/qdb.sock",
		TimeoutSecond:   7,
		MaxConnections:  32,
		MaxStringBytes:  1024,
		Namespaces:      []string{"users", "sessions"},
		MetricsEndpoint: "localhost:9100",
		LogLevel:        "debug",
		SocketConf:      common.SocketConf{WriteBufferSize: 4096, ReadBufferSize: 8192},
		TCPConf:         common.TCPConf{TCPNoDelay: true, TCPKeepAliveSec: 30, TCPLingerSec: -1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestReadConfigRejectsInvalidValues(t *testing.T) {
	tests := map[string]map[string]any{
		"EmptyEndpoint":       {"endpoint": ""},
		"NegativeTimeout":     {"endpoint": "localhost:8080", "timeout": -1},
		"NegativeConnections": {"endpoint": "localhost:8080", "max-connections": -3},
	}

	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			setConfig(t, values)
			if _, err := readConfig(); err == nil {
				t.Errorf("readConfig succeeded")
			}
		})
	}
}
