package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/qdb/lib/store"
	storetesting "github.com/ValentinKolb/qdb/lib/store/testing"
	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/ValentinKolb/qdb/rpc/serializer"
	"github.com/ValentinKolb/qdb/rpc/server"
	"github.com/ValentinKolb/qdb/rpc/transport/unix"
	"github.com/google/go-cmp/cmp"
)

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// fakeTransport answers every exchange with a fixed byte sequence
type fakeTransport struct {
	reply   []byte
	err     error
	sent    bytes.Buffer
	closed  bool
	connect error
}

func (f *fakeTransport) Connect(common.ClientConfig) error { return f.connect }

func (f *fakeTransport) Exchange(_ context.Context, send func(w io.Writer) error, recv func(r io.Reader) error) error {
	if f.err != nil {
		return f.err
	}
	if err := send(&f.sent); err != nil {
		return err
	}
	return recv(bytes.NewReader(f.reply))
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

// newFakeStore creates an RPC store whose transport replies with resp
func newFakeStore(t *testing.T, resp common.Response) (IRPCStore, *fakeTransport) {
	t.Helper()
	s := serializer.NewBinarySerializer()

	var buf bytes.Buffer
	if err := s.EncodeResponse(&buf, resp); err != nil {
		t.Fatalf("EncodeResponse failed: %v", err)
	}
	ft := &fakeTransport{reply: buf.Bytes()}

	rs, err := NewRPCStore(common.ClientConfig{Endpoints: []string{"fake"}}, ft, s)
	if err != nil {
		t.Fatalf("NewRPCStore failed: %v", err)
	}
	return rs, ft
}

// startServer starts a qdb server on a unix socket and returns its endpoint
func startServer(t *testing.T) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "qdb")
	if err != nil {
		t.Fatalf("MkdirTemp failed: %v", err)
	}
	endpoint := filepath.Join(dir, "qdb.sock")

	srv := server.NewRPCServer(
		common.ServerConfig{Endpoint: endpoint, TimeoutSecond: 5},
		unix.NewUnixServerTransport(),
		serializer.NewBinarySerializer(),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()
	t.Cleanup(func() {
		_ = srv.Close()
		<-errCh
		_ = os.RemoveAll(dir)
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(endpoint); err == nil {
			return endpoint
		}
		if time.Now().After(deadline) {
			t.Fatalf("server socket was not created")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// connectStore connects a new RPC store to the endpoint
func connectStore(t *testing.T, endpoint string) IRPCStore {
	t.Helper()
	s, err := NewRPCStore(
		common.ClientConfig{Endpoints: []string{endpoint}, TimeoutSecond: 5, ConnectionsPerEndpoint: 4},
		unix.NewUnixClientTransport(),
		serializer.NewBinarySerializer(),
	)
	if err != nil {
		t.Fatalf("NewRPCStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func TestRPCStore(t *testing.T) {
	// Every factory call gets its own server, so every test starts with an empty store
	storetesting.RunStoreTests(t, "RPCStore", func() store.IStore {
		return connectStore(t, startServer(t))
	}, false)
}

func TestRemoteErrors(t *testing.T) {
	s := connectStore(t, startServer(t))

	err := s.Write("missing", "k", "v", true)
	if store.Code(err) != store.RetCRemote {
		t.Fatalf("Write to missing namespace code = %s, want %s", store.Code(err), store.RetCRemote)
	}
	if !strings.Contains(err.Error(), "namespace not found") {
		t.Errorf("error %q does not carry the server message", err)
	}
}

func TestDo(t *testing.T) {
	s := connectStore(t, startServer(t))
	ctx := context.Background()

	resp, err := s.Do(ctx, common.NewCreateNamespaceRequest("users"))
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if diff := cmp.Diff(common.NewSuccessResponse(), resp); diff != "" {
		t.Errorf("create mismatch (-want +got):\n%s", diff)
	}

	// failure responses are returned, not converted to errors
	resp, err = s.Do(ctx, common.NewCreateNamespaceRequest("users"))
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if resp.Success || resp.Message == nil {
		t.Errorf("second create = %s, want failure with message", resp)
	}

	// an expired context aborts the request
	expired, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := s.Do(expired, common.NewReadRequest("users", "k")); !errors.Is(err, context.Canceled) {
		t.Errorf("Do with cancelled context error = %v, want context.Canceled", err)
	}
}

func TestReadWithoutResult(t *testing.T) {
	s, _ := newFakeStore(t, common.NewSuccessResponse())

	if _, err := s.Read("ns", "k"); !errors.Is(err, ErrProtocolViolation) {
		t.Errorf("Read error = %v, want ErrProtocolViolation", err)
	}
}

func TestFailureWithoutMessage(t *testing.T) {
	s, _ := newFakeStore(t, common.Response{Success: false})

	err := s.Delete("ns", "k")
	if store.Code(err) != store.RetCRemote {
		t.Errorf("Delete code = %s, want %s", store.Code(err), store.RetCRemote)
	}
}

func TestRequestEncoding(t *testing.T) {
	s, ft := newFakeStore(t, common.NewSuccessResponse())

	if err := s.Write("ns", "k", "v", false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := serializer.NewBinarySerializer().DecodeRequest(&ft.sent)
	if err != nil {
		t.Fatalf("DecodeRequest failed: %v", err)
	}
	if diff := cmp.Diff(common.NewWriteRequest("ns", "k", "v", false), got); diff != "" {
		t.Errorf("sent request mismatch (-want +got):\n%s", diff)
	}

	if err := s.Close(); err != nil || !ft.closed {
		t.Errorf("Close did not close the transport")
	}
}

func TestTransportErrors(t *testing.T) {
	ft := &fakeTransport{connect: errors.New("unreachable")}
	if _, err := NewRPCStore(common.ClientConfig{}, ft, serializer.NewBinarySerializer()); err == nil {
		t.Errorf("NewRPCStore with failing transport succeeded")
	}

	s, ft := newFakeStore(t, common.NewSuccessResponse())
	ft.err = io.ErrUnexpectedEOF
	if err := s.CreateNamespace("ns"); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("CreateNamespace error = %v, want io.ErrUnexpectedEOF", err)
	}
	if store.Code(ft.err) != store.RetCInternalError {
		t.Errorf("transport errors must not look like remote failures")
	}
}
