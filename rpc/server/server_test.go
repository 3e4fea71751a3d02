package server

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/ValentinKolb/qdb/rpc/serializer"
	"github.com/ValentinKolb/qdb/rpc/transport/unix"
	"github.com/google/go-cmp/cmp"
)

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// rawString encodes a length-prefixed string field by hand
func rawString(s []byte) []byte {
	buf := binary.LittleEndian.AppendUint64(nil, uint64(len(s)))
	return append(buf, s...)
}

// newTestServer creates an initialized server that is not listening
func newTestServer(t *testing.T, config common.ServerConfig, s serializer.IRPCSerializer) *rpcServer {
	t.Helper()
	srv := NewRPCServer(config, unix.NewUnixServerTransport(), s)
	if err := srv.init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return srv
}

// roundTrip runs one exchange through the server handler
func roundTrip(t *testing.T, srv *rpcServer, req common.Request) common.Response {
	t.Helper()
	s := serializer.NewBinarySerializer()

	var in, out bytes.Buffer
	if err := s.EncodeRequest(&in, req); err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}
	if err := srv.handleExchange(&in, &out); err != nil {
		t.Fatalf("handleExchange(%s) failed: %v", req, err)
	}
	resp, err := s.DecodeResponse(&out)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("handleExchange wrote %d bytes after the response", out.Len())
	}
	return resp
}

// metricsText renders the metrics of a server
func metricsText(srv *rpcServer) string {
	var buf bytes.Buffer
	srv.metrics.writePrometheus(&buf)
	return buf.String()
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func TestHandleExchange(t *testing.T) {
	srv := newTestServer(t, common.ServerConfig{Namespaces: []string{"users"}}, serializer.NewBinarySerializer())

	if diff := cmp.Diff(common.NewSuccessResponse(), roundTrip(t, srv, common.NewWriteRequest("users", "alice", "admin", false))); diff != "" {
		t.Errorf("write mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(common.NewResultResponse("admin"), roundTrip(t, srv, common.NewReadRequest("users", "alice"))); diff != "" {
		t.Errorf("read mismatch (-want +got):\n%s", diff)
	}
	if resp := roundTrip(t, srv, common.NewReadRequest("other", "alice")); resp.Success {
		t.Errorf("read in missing namespace = %s, want failure", resp)
	}
}

func TestRejectRequest(t *testing.T) {
	tests := map[string]struct {
		input     []byte
		limit     uint64
		wantErr   error
		wantReply bool
	}{
		"Truncated": {
			input:   rawString([]byte("n"))[:5],
			wantErr: serializer.ErrTruncated,
		},
		"TruncatedAfterTag": {
			input:   append(rawString([]byte("ns")), byte(common.OpTRead)),
			wantErr: serializer.ErrTruncated,
		},
		"UnknownTag": {
			input:     append(rawString([]byte("ns")), 9),
			wantErr:   serializer.ErrUnknownTag,
			wantReply: true,
		},
		"InvalidEncoding": {
			input:     append(rawString([]byte{0xff, 0xfe}), byte(common.OpTCreateNamespace)),
			wantErr:   serializer.ErrInvalidEncoding,
			wantReply: true,
		},
		"TooLarge": {
			input:     append(rawString([]byte("namespace")), byte(common.OpTCreateNamespace)),
			limit:     4,
			wantErr:   serializer.ErrTooLarge,
			wantReply: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(t, common.ServerConfig{}, serializer.NewBinarySerializerWithLimit(tt.limit))

			var out bytes.Buffer
			err := srv.handleExchange(bytes.NewReader(tt.input), &out)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("handleExchange error = %v, want %v", err, tt.wantErr)
			}

			if !tt.wantReply {
				if out.Len() != 0 {
					t.Errorf("expected no reply, got %d bytes", out.Len())
				}
				return
			}

			resp, err := serializer.NewBinarySerializer().DecodeResponse(&out)
			if err != nil {
				t.Fatalf("DecodeResponse failed: %v", err)
			}
			if resp.Success || resp.Message == nil || !strings.HasPrefix(*resp.Message, "invalid request") {
				t.Errorf("reply = %s, want an invalid request failure", resp)
			}

			kind := serializer.ErrorKind(tt.wantErr)
			if !strings.Contains(metricsText(srv), `qdb_decode_errors_total{kind="`+kind+`"} 1`) {
				t.Errorf("decode error of kind %s was not counted", kind)
			}
		})
	}
}

func TestRequestMetrics(t *testing.T) {
	srv := newTestServer(t, common.ServerConfig{Namespaces: []string{"ns"}}, serializer.NewBinarySerializer())

	roundTrip(t, srv, common.NewWriteRequest("ns", "k", "v", true))
	roundTrip(t, srv, common.NewReadRequest("ns", "k"))
	roundTrip(t, srv, common.NewReadRequest("ns", "missing"))

	text := metricsText(srv)
	for _, want := range []string{
		`qdb_requests_total{op="write"} 1`,
		`qdb_requests_total{op="read"} 2`,
		`qdb_request_failures_total{op="read"} 1`,
		`qdb_request_duration_seconds_count{op="read"} 2`,
		`qdb_connections_active 0`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics do not contain %q", want)
		}
	}
	if strings.Contains(text, `qdb_request_failures_total{op="write"}`) {
		t.Errorf("successful write was counted as failure")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, common.ServerConfig{Namespaces: []string{"ns"}}, serializer.NewBinarySerializer())
	roundTrip(t, srv, common.NewReadRequest("ns", "k"))

	ts := httptest.NewServer(srv.metrics.newMetricsServer("").Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `qdb_requests_total{op="read"} 1`) {
		t.Errorf("metrics endpoint does not expose the request counter")
	}
}

func TestBootstrapNamespaces(t *testing.T) {
	// duplicates are ignored
	srv := newTestServer(t, common.ServerConfig{Namespaces: []string{"a", "b", "a"}}, serializer.NewBinarySerializer())
	if resp := roundTrip(t, srv, common.NewCreateNamespaceRequest("b")); resp.Success {
		t.Errorf("namespace b was not created at startup")
	}

	// invalid names stop the server
	srv = NewRPCServer(common.ServerConfig{Namespaces: []string{""}}, unix.NewUnixServerTransport(), serializer.NewBinarySerializer())
	if err := srv.init(); err == nil {
		t.Errorf("init with an empty namespace succeeded")
	}

	// invalid log levels too
	srv = NewRPCServer(common.ServerConfig{LogLevel: "loud"}, unix.NewUnixServerTransport(), serializer.NewBinarySerializer())
	if err := srv.Serve(); err == nil {
		t.Errorf("Serve with an invalid log level succeeded")
	}
}

func TestServeOverUnixSocket(t *testing.T) {
	config := common.ServerConfig{
		Endpoint:      filepath.Join(t.TempDir(), "qdb.sock"),
		TimeoutSecond: 5,
		Namespaces:    []string{"users"},
	}
	srv := NewRPCServer(config, unix.NewUnixServerTransport(), serializer.NewBinarySerializer())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()
	defer func() {
		if err := srv.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
		if err := <-errCh; err != nil {
			t.Errorf("Serve returned %v", err)
		}
	}()

	// wait for the socket
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(config.Endpoint); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server socket was not created")
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn, err := net.Dial("unix", config.Endpoint)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	s := serializer.NewBinarySerializer()

	// two valid exchanges on one stream
	_ = s.EncodeRequest(conn, common.NewWriteRequest("users", "alice", "admin", true))
	if resp, err := s.DecodeResponse(conn); err != nil || !resp.Success {
		t.Fatalf("write reply = %s, %v", resp, err)
	}
	_ = s.EncodeRequest(conn, common.NewReadRequest("users", "alice"))
	if resp, err := s.DecodeResponse(conn); err != nil || resp.Result == nil || *resp.Result != "admin" {
		t.Fatalf("read reply = %s, %v", resp, err)
	}

	// an unknown tag is answered with a failure, then the stream is closed
	_, _ = conn.Write(append(rawString([]byte("users")), 42))
	resp, err := s.DecodeResponse(conn)
	if err != nil || resp.Success {
		t.Fatalf("reply to unknown tag = %s, %v", resp, err)
	}
	if _, err := s.DecodeResponse(conn); err == nil {
		t.Errorf("stream was not closed after an unknown tag")
	}
}
