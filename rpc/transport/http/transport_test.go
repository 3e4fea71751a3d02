package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/ValentinKolb/qdb/rpc/serializer"
	"github.com/ValentinKolb/qdb/rpc/transport"
	"github.com/google/go-cmp/cmp"
)

var errRejected = errors.New("rejected")

// testHandler answers with the namespace as result. "reject" fails with a failure reply,
// "drop" fails without any reply and "double" writes two replies.
func testHandler(r io.Reader, w io.Writer) error {
	s := serializer.NewBinarySerializer()
	req, err := s.DecodeRequest(r)
	if err != nil {
		return err
	}
	switch req.Namespace {
	case "reject":
		_ = s.EncodeResponse(w, common.NewFailureResponse("rejected"))
		return errRejected
	case "drop":
		return errRejected
	case "double":
		_ = s.EncodeResponse(w, common.NewSuccessResponse())
	}
	return s.EncodeResponse(w, common.NewResultResponse(req.Namespace))
}

// startTestServer serves the transport's request handler with httptest
func startTestServer(t *testing.T) string {
	t.Helper()
	srv := &httpServerTransport{}
	srv.RegisterHandler(testHandler)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", loggerMiddleware(srv.handleRequest))
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts.URL
}

// connectTestClient connects an http client transport to the endpoints
func connectTestClient(t *testing.T, endpoints ...string) transport.IRPCClientTransport {
	t.Helper()
	client := NewHttpClientTransport()
	if err := client.Connect(common.ClientConfig{Endpoints: endpoints, TimeoutSecond: 5}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// exchange sends one request and decodes the reply
func exchange(client transport.IRPCClientTransport, ns string) (common.Response, error) {
	s := serializer.NewBinarySerializer()
	var resp common.Response
	err := client.Exchange(context.Background(),
		func(w io.Writer) error { return s.EncodeRequest(w, common.NewReadRequest(ns, "k")) },
		func(r io.Reader) error {
			var err error
			resp, err = s.DecodeResponse(r)
			return err
		},
	)
	return resp, err
}

func TestExchange(t *testing.T) {
	url := startTestServer(t)
	client := connectTestClient(t, url, url)

	tests := map[string]common.Response{
		"users":  common.NewResultResponse("users"),
		"reject": common.NewFailureResponse("rejected"),
	}

	for ns, want := range tests {
		t.Run(ns, func(t *testing.T) {
			got, err := exchange(client, ns)
			if err != nil {
				t.Fatalf("exchange failed: %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("reply mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExchangeErrors(t *testing.T) {
	url := startTestServer(t)
	client := connectTestClient(t, url)

	// no reply at all
	if _, err := exchange(client, "drop"); err == nil {
		t.Errorf("exchange without reply succeeded")
	}

	// more than one reply
	if _, err := exchange(client, "double"); !errors.Is(err, transport.ErrTrailingData) {
		t.Errorf("exchange with two replies error = %v, want ErrTrailingData", err)
	}
}

func TestRejectsUndecodableBody(t *testing.T) {
	url := startTestServer(t)

	// unknown tag 9
	body := []byte{2, 0, 0, 0, 0, 0, 0, 0, 'n', 's', 9}
	resp, err := http.Post(url+"/", contentType, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if got := resp.Header.Get("Content-Type"); got != contentType {
		t.Errorf("Content-Type = %q, want %q", got, contentType)
	}
}

func TestRejectsTrailingBody(t *testing.T) {
	url := startTestServer(t)

	var body bytes.Buffer
	if err := serializer.NewBinarySerializer().EncodeRequest(&body, common.NewReadRequest("users", "k")); err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}
	body.WriteByte(0)

	resp, err := http.Post(url+"/", contentType, &body)
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	defer resp.Body.Close()
	reply, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if len(reply) != 0 {
		t.Errorf("got %d reply bytes for a body with trailing data", len(reply))
	}
}

func TestExchangeWithoutConnect(t *testing.T) {
	client := NewHttpClientTransport()
	if _, err := exchange(client, "ns"); !errors.Is(err, transport.ErrTransportClosed) {
		t.Errorf("exchange error = %v, want ErrTransportClosed", err)
	}
	if err := client.Connect(common.ClientConfig{}); err == nil {
		t.Errorf("Connect without endpoints succeeded")
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := map[string]string{
		"localhost:8080":             "http://localhost:8080/",
		"http://localhost:8080":      "http://localhost:8080/",
		"https://db.example.com/api": "https://db.example.com/",
	}
	for in, want := range tests {
		got, err := parseEndpoint(in)
		if err != nil {
			t.Errorf("parseEndpoint(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("parseEndpoint(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := parseEndpoint("http://"); err == nil {
		t.Errorf("parseEndpoint without host succeeded")
	}
}

func TestCloseBeforeListen(t *testing.T) {
	srv := NewHttpServerTransport()
	srv.RegisterHandler(testHandler)
	if err := srv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := srv.Listen(common.ServerConfig{Endpoint: "127.0.0.1:0"}); err != nil {
		t.Errorf("Listen after Close = %v, want nil", err)
	}
}
