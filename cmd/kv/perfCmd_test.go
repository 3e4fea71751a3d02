package kv

import (
	"testing"

	"github.com/ValentinKolb/qdb/lib/store"
	"github.com/ValentinKolb/qdb/lib/store/lstore"
)

func TestRunWorkload(t *testing.T) {
	s := lstore.NewLocalStore()
	if err := s.CreateNamespace(perfNamespace); err != nil {
		t.Fatalf("CreateNamespace failed: %v", err)
	}

	for _, w := range perfWorkloads("large") {
		result := runWorkload(s, w, 4, 200)
		if got := result.timer.Count(); got != 200 {
			t.Errorf("%s: timed %d operations, want 200", w.name, got)
		}
		if result.errors != 0 {
			t.Errorf("%s: %d operations failed", w.name, result.errors)
		}
	}
}

func TestIgnoreMissing(t *testing.T) {
	tests := map[string]struct {
		err     error
		ignored bool
	}{
		"Local":  {err: store.NewError(store.RetCKeyNotFound, "k"), ignored: true},
		"Remote": {err: store.NewError(store.RetCRemote, "key not found: k"), ignored: true},
		"Other":  {err: store.NewError(store.RetCNamespaceNotFound, "ns"), ignored: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ignoreMissing(tt.err) == nil; got != tt.ignored {
				t.Errorf("ignoreMissing(%v) ignored = %v, want %v", tt.err, got, tt.ignored)
			}
		})
	}
}
