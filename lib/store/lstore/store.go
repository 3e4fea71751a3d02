package lstore

import (
	"fmt"
	"github.com/ValentinKolb/qdb/lib/store"
	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"sort"
	"sync"
)

var Logger = logger.GetLogger(common.LoggerStore)

// namespace holds the keys of one namespace.
// Key operations hold mu for reading, DeleteNamespace marks the namespace dropped under the write lock,
// so no key operation completes on a namespace after its deletion returned.
type namespace struct {
	mu      sync.RWMutex
	dropped bool
	keys    *xsync.MapOf[string, string]
}

func newNamespace() *namespace {
	return &namespace{keys: xsync.NewMapOf[string, string]()}
}

// acquire locks the namespace for a key operation. It returns false if the namespace was dropped.
func (n *namespace) acquire() bool {
	n.mu.RLock()
	if n.dropped {
		n.mu.RUnlock()
		return false
	}
	return true
}

func (n *namespace) release() {
	n.mu.RUnlock()
}

// drop marks the namespace as deleted once all running key operations are done
func (n *namespace) drop() {
	n.mu.Lock()
	n.dropped = true
	n.mu.Unlock()
}

type storeImpl struct {
	namespaces *xsync.MapOf[string, *namespace]
}

// NewLocalStore creates a new local store instance.
// This store implementation is not persistent and only works on a single node.
//
// Thread-safety: all methods can be called concurrently.
func NewLocalStore() *storeImpl {
	return &storeImpl{
		namespaces: xsync.NewMapOf[string, *namespace](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Read(ns, key string) (string, error) {
	n, err := s.acquire(ns)
	if err != nil {
		return "", err
	}
	defer n.release()

	value, ok := n.keys.Load(key)
	if !ok {
		return "", store.NewError(store.RetCKeyNotFound, fmt.Sprintf("key %q not found in namespace %q", key, ns))
	}
	return value, nil
}

func (s *storeImpl) Write(ns, key, value string, overwrite bool) error {
	n, err := s.acquire(ns)
	if err != nil {
		return err
	}
	defer n.release()

	if overwrite {
		n.keys.Store(key, value)
		return nil
	}
	// LoadOrStore makes check and insert one atomic step
	if _, loaded := n.keys.LoadOrStore(key, value); loaded {
		return store.NewError(store.RetCKeyExists, fmt.Sprintf("key %q already exists in namespace %q", key, ns))
	}
	return nil
}

func (s *storeImpl) Delete(ns, key string) error {
	n, err := s.acquire(ns)
	if err != nil {
		return err
	}
	defer n.release()

	if _, loaded := n.keys.LoadAndDelete(key); !loaded {
		return store.NewError(store.RetCKeyNotFound, fmt.Sprintf("key %q not found in namespace %q", key, ns))
	}
	return nil
}

func (s *storeImpl) CreateNamespace(ns string) error {
	if ns == "" {
		return store.NewError(store.RetCInvalidArgument, "namespace must not be empty")
	}
	if _, loaded := s.namespaces.LoadOrStore(ns, newNamespace()); loaded {
		return store.NewError(store.RetCNamespaceExists, fmt.Sprintf("namespace %q already exists", ns))
	}
	Logger.Debugf("created namespace %q", ns)
	return nil
}

func (s *storeImpl) DeleteNamespace(ns string) error {
	n, loaded := s.namespaces.LoadAndDelete(ns)
	if !loaded {
		return store.NewError(store.RetCNamespaceNotFound, fmt.Sprintf("namespace %q not found", ns))
	}
	n.drop()
	Logger.Debugf("deleted namespace %q with %d keys", ns, n.keys.Size())
	return nil
}

// --------------------------------------------------------------------------
// Introspection (not part of store.IStore)
// --------------------------------------------------------------------------

// Namespaces returns the sorted names of all namespaces
func (s *storeImpl) Namespaces() []string {
	names := make([]string, 0, s.namespaces.Size())
	s.namespaces.Range(func(name string, _ *namespace) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Size returns the number of keys in a namespace
func (s *storeImpl) Size(ns string) (int, error) {
	n, err := s.acquire(ns)
	if err != nil {
		return 0, err
	}
	defer n.release()
	return n.keys.Size(), nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// acquire returns the locked namespace ns. The caller has to release it.
func (s *storeImpl) acquire(ns string) (*namespace, error) {
	n, ok := s.namespaces.Load(ns)
	if !ok || !n.acquire() {
		return nil, store.NewError(store.RetCNamespaceNotFound, fmt.Sprintf("namespace %q not found", ns))
	}
	return n, nil
}
