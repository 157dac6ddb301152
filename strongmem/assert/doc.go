// Package assert provides invariant checking for lib-strongmem.
//
// Two failure modes exist and are deliberately separate:
//
//   - Asserter methods return an *AssertionError for recoverable validation.
//     Callers unwrap with errors.Is(err, ErrAssertionFailed).
//   - Trap panics with an *AssertionError for ownership violations that make
//     continued execution unsafe (use-after-move, double-destroy, releasing
//     an allocator that still backs live objects).
package assert
