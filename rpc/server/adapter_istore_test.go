package server

import (
	"strings"
	"testing"

	"github.com/ValentinKolb/qdb/lib/store/lstore"
	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/google/go-cmp/cmp"
)

func TestIStoreAdapter(t *testing.T) {
	s := lstore.NewLocalStore()
	adapter := NewIStoreServerAdapter()

	// the steps run in order against the same store
	steps := []struct {
		name string
		req  common.Request
		want common.Response
		// fail is a substring of the expected failure message
		fail string
	}{
		{name: "ReadMissingNamespace", req: common.NewReadRequest("users", "alice"), fail: "namespace not found"},
		{name: "CreateNamespace", req: common.NewCreateNamespaceRequest("users"), want: common.NewSuccessResponse()},
		{name: "CreateNamespaceTwice", req: common.NewCreateNamespaceRequest("users"), fail: "namespace exists"},
		{name: "ReadMissingKey", req: common.NewReadRequest("users", "alice"), fail: "key not found"},
		{name: "Write", req: common.NewWriteRequest("users", "alice", "admin", false), want: common.NewSuccessResponse()},
		{name: "Read", req: common.NewReadRequest("users", "alice"), want: common.NewResultResponse("admin")},
		{name: "WriteDenied", req: common.NewWriteRequest("users", "alice", "guest", false), fail: "key exists"},
		{name: "ReadAfterDenied", req: common.NewReadRequest("users", "alice"), want: common.NewResultResponse("admin")},
		{name: "Overwrite", req: common.NewWriteRequest("users", "alice", "guest", true), want: common.NewSuccessResponse()},
		{name: "ReadEmptyValue", req: common.NewWriteRequest("users", "bob", "", true), want: common.NewSuccessResponse()},
		{name: "ReadEmpty", req: common.NewReadRequest("users", "bob"), want: common.NewResultResponse("")},
		{name: "Delete", req: common.NewDeleteRequest("users", "alice"), want: common.NewSuccessResponse()},
		{name: "DeleteTwice", req: common.NewDeleteRequest("users", "alice"), fail: "key not found"},
		{name: "DeleteNamespace", req: common.NewDeleteNamespaceRequest("users"), want: common.NewSuccessResponse()},
		{name: "DeleteNamespaceTwice", req: common.NewDeleteNamespaceRequest("users"), fail: "namespace not found"},
		{name: "CreateEmptyNamespace", req: common.NewCreateNamespaceRequest(""), fail: "invalid argument"},
	}

	for _, step := range steps {
		got := adapter.Handle(step.req, s)

		if step.fail != "" {
			if got.Success || got.Message == nil || got.Result != nil {
				t.Errorf("%s: expected failure response, got %s", step.name, got)
				continue
			}
			if !strings.Contains(*got.Message, step.fail) {
				t.Errorf("%s: message %q does not contain %q", step.name, *got.Message, step.fail)
			}
			continue
		}

		if diff := cmp.Diff(step.want, got); diff != "" {
			t.Errorf("%s: response mismatch (-want +got):\n%s", step.name, diff)
		}
	}
}

func TestIStoreAdapterNilStore(t *testing.T) {
	resp := NewIStoreServerAdapter().Handle(common.NewReadRequest("ns", "k"), nil)
	if resp.Success || resp.Message == nil {
		t.Errorf("Handle with nil store = %s, want failure", resp)
	}
}

func TestIStoreAdapterUnsupportedOperation(t *testing.T) {
	req := common.Request{Namespace: "ns"}
	resp := NewIStoreServerAdapter().Handle(req, lstore.NewLocalStore())
	if resp.Success || resp.Message == nil {
		t.Errorf("Handle without operation = %s, want failure", resp)
	}
}
