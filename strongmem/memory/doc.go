// Package memory defines the polymorphic memory resource boundary consumed by
// strongmem/ptr, along with several resource implementations.
//
// A Resource hands out raw storage by size and alignment and takes it back on
// deallocation. Implementations range from the garbage-collected Heap (the
// default) to fixed-capacity arenas for memory-constrained paths:
//
//   - Heap: Go runtime backed, GC-scanned, safe for any payload type.
//   - Monotonic: bump allocator over a fixed buffer; frees are deferred until
//     Release.
//   - Pool: free list of fixed-size blocks.
//   - Locked: memguard-backed locked pages for secret material.
//   - Instrumented: decorator that records OpenTelemetry metrics.
//
// Raw resources (everything except Heap) return storage the garbage collector
// does not scan. Payload types containing Go pointers are rejected by the ptr
// factories with ErrPointerPayload rather than silently corrupting the heap.
package memory
