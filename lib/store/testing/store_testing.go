package testing

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/qdb/lib/store"
)

// StoreFactory is a function that creates a new, empty instance of an IStore implementation
type StoreFactory func() store.IStore

// RunStoreTests runs a comprehensive test suite for an IStore implementation.
//
// Remote implementations report every failure with store.RetCRemote, so the suite only
// checks the return code when strictCodes is true.
func RunStoreTests(t *testing.T, name string, factory StoreFactory, strictCodes bool) {
	t.Run(name, func(t *testing.T) {
		t.Run("Write&Read", func(t *testing.T) {
			testWriteRead(t, factory())
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory(), strictCodes)
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(), strictCodes)
		})

		t.Run("NamespaceLifecycle", func(t *testing.T) {
			testNamespaceLifecycle(t, factory(), strictCodes)
		})

		t.Run("NamespaceIsolation", func(t *testing.T) {
			testNamespaceIsolation(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ConcurrentWriteOnce", func(t *testing.T) {
			testConcurrentWriteOnce(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// requireCode fails the test if err does not carry the expected return code
func requireCode(t testing.TB, err error, want store.RetCode, strict bool) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %q, got nil", want)
	}
	got := store.Code(err)
	if strict && got != want {
		t.Fatalf("expected code %q, got %q (%v)", want, got, err)
	}
	if !strict && got != want && got != store.RetCRemote {
		t.Fatalf("expected code %q or %q, got %q (%v)", want, store.RetCRemote, got, err)
	}
}

// mustCreate creates a namespace or fails the test
func mustCreate(t testing.TB, s store.IStore, ns string) {
	t.Helper()
	if err := s.CreateNamespace(ns); err != nil {
		t.Fatalf("CreateNamespace(%q) failed: %v", ns, err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testWriteRead(t *testing.T, s store.IStore) {
	mustCreate(t, s, "users")

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%d", i)
		value := fmt.Sprintf("value-%d", i)
		if err := s.Write("users", key, value, true); err != nil {
			t.Fatalf("Write(%q) failed: %v", key, err)
		}
	}

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%d", i)
		got, err := s.Read("users", key)
		if err != nil {
			t.Fatalf("Read(%q) failed: %v", key, err)
		}
		if want := fmt.Sprintf("value-%d", i); got != want {
			t.Errorf("Read(%q) = %q, want %q", key, got, want)
		}
	}
}

func testOverwrite(t *testing.T, s store.IStore, strict bool) {
	mustCreate(t, s, "ns")

	if err := s.Write("ns", "k", "first", false); err != nil {
		t.Fatalf("first Write without overwrite failed: %v", err)
	}

	// denied overwrite keeps the old value
	err := s.Write("ns", "k", "second", false)
	requireCode(t, err, store.RetCKeyExists, strict)
	if got, _ := s.Read("ns", "k"); got != "first" {
		t.Errorf("value after denied overwrite = %q, want %q", got, "first")
	}

	// allowed overwrite replaces the value
	if err := s.Write("ns", "k", "third", true); err != nil {
		t.Fatalf("Write with overwrite failed: %v", err)
	}
	if got, _ := s.Read("ns", "k"); got != "third" {
		t.Errorf("value after overwrite = %q, want %q", got, "third")
	}
}

func testDelete(t *testing.T, s store.IStore, strict bool) {
	mustCreate(t, s, "ns")

	if err := s.Write("ns", "k", "v", true); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Delete("ns", "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err := s.Read("ns", "k")
	requireCode(t, err, store.RetCKeyNotFound, strict)

	// deleting twice fails
	requireCode(t, s.Delete("ns", "k"), store.RetCKeyNotFound, strict)

	// a deleted key can be written again without overwrite
	if err := s.Write("ns", "k", "again", false); err != nil {
		t.Fatalf("Write after Delete failed: %v", err)
	}
}

func testNamespaceLifecycle(t *testing.T, s store.IStore, strict bool) {
	// operations on a missing namespace fail
	_, err := s.Read("missing", "k")
	requireCode(t, err, store.RetCNamespaceNotFound, strict)
	requireCode(t, s.Write("missing", "k", "v", true), store.RetCNamespaceNotFound, strict)
	requireCode(t, s.Delete("missing", "k"), store.RetCNamespaceNotFound, strict)
	requireCode(t, s.DeleteNamespace("missing"), store.RetCNamespaceNotFound, strict)

	mustCreate(t, s, "ns")
	requireCode(t, s.CreateNamespace("ns"), store.RetCNamespaceExists, strict)

	if err := s.Write("ns", "k", "v", true); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.DeleteNamespace("ns"); err != nil {
		t.Fatalf("DeleteNamespace failed: %v", err)
	}

	// a recreated namespace starts empty
	mustCreate(t, s, "ns")
	_, err = s.Read("ns", "k")
	requireCode(t, err, store.RetCKeyNotFound, strict)
}

func testNamespaceIsolation(t *testing.T, s store.IStore) {
	mustCreate(t, s, "a")
	mustCreate(t, s, "b")

	if err := s.Write("a", "k", "in-a", true); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Write("b", "k", "in-b", true); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if got, _ := s.Read("a", "k"); got != "in-a" {
		t.Errorf("Read(a, k) = %q, want %q", got, "in-a")
	}
	if got, _ := s.Read("b", "k"); got != "in-b" {
		t.Errorf("Read(b, k) = %q, want %q", got, "in-b")
	}

	if err := s.DeleteNamespace("a"); err != nil {
		t.Fatalf("DeleteNamespace failed: %v", err)
	}
	if got, err := s.Read("b", "k"); err != nil || got != "in-b" {
		t.Errorf("Read(b, k) after deleting a = %q, %v", got, err)
	}
}

func testEdgeCases(t *testing.T, s store.IStore) {
	mustCreate(t, s, "edge")

	values := map[string]string{
		"":                          "empty key",
		"empty value":               "",
		"unicode ключ 🔑":            "значение ✓",
		strings.Repeat("long", 256): strings.Repeat("v", 64*1024),
		"with\x00nul":               "nul\x00inside",
	}

	for k, v := range values {
		if err := s.Write("edge", k, v, true); err != nil {
			t.Fatalf("Write(%q) failed: %v", k, err)
		}
	}
	for k, want := range values {
		got, err := s.Read("edge", k)
		if err != nil {
			t.Fatalf("Read(%q) failed: %v", k, err)
		}
		if got != want {
			t.Errorf("Read(%q) returned %d bytes, want %d", k, len(got), len(want))
		}
	}
}

func testConcurrentWriteOnce(t *testing.T, s store.IStore) {
	mustCreate(t, s, "race")

	const workers = 16
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Write("race", "k", fmt.Sprintf("w%d", i), false); err == nil {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("%d writers succeeded without overwrite, want exactly 1", wins.Load())
	}
}
