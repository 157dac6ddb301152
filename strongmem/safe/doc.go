// Package safe provides overflow-checked size and alignment arithmetic for
// allocator implementations.
//
// All helpers operate on uintptr because they feed directly into
// memory.Resource allocation requests; a silent wraparound here turns into an
// undersized allocation and memory corruption later.
package safe
