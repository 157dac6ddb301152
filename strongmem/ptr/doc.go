// Package ptr provides Strong, a non-null, exclusive-ownership handle to a
// single value placed in storage obtained from a memory.Resource.
//
// A Strong is only obtainable from the New and NewWith factories, and a
// successfully built handle always refers to a live value. There is no null
// state to check for: once a handle goes dead (its value was moved out or
// destroyed), any further access traps deterministically with an
// *assert.AssertionError panic instead of returning a stale or nil pointer.
//
// Ownership is exclusive. Copying a handle is not part of the API; transfer
// ownership with Move, which poisons the source. Destroy disposes the owned
// value and returns its storage to the originating resource exactly once.
//
// Sharing policy: a Strong may be transferred between goroutines, but a
// single handle must not be accessed concurrently without external
// synchronization. There is no reference count and no internal locking.
package ptr
