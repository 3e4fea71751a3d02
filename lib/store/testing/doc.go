// Package testing provides a reusable test suite for store.IStore implementations.
//
// Any implementation (the local store as well as the RPC client store) can be checked with:
//
//	func TestMyStore(t *testing.T) {
//		storetesting.RunStoreTests(t, "MyStore", func() store.IStore { return newMyStore() }, true)
//	}
//
// The suite covers key reads and writes, overwrite denial, deletes, the namespace lifecycle,
// namespace isolation, unusual keys and values and concurrent write-once races.
package testing
