package ptr_test

import (
	"fmt"

	"github.com/memcore-io/lib-strongmem/strongmem/memory"
	"github.com/memcore-io/lib-strongmem/strongmem/ptr"
)

func Example() {
	arena, err := memory.NewMonotonic(128)
	if err != nil {
		panic(err)
	}

	answer, err := ptr.New(arena, 42)
	if err != nil {
		panic(err)
	}

	fmt.Println(*answer.Get())

	// Hand the value off; the original handle is now unusable.
	carried := answer.Move()

	if err := carried.Destroy(); err != nil {
		panic(err)
	}

	arena.Release()

	// Output: 42
}

type counter struct {
	Hits uint64
}

func ExampleNewWith() {
	pool, err := memory.NewPool(8, 8, 16)
	if err != nil {
		panic(err)
	}

	c, err := ptr.NewWith(pool, func(c *counter) error {
		c.Hits = 1

		return nil
	})
	if err != nil {
		panic(err)
	}

	c.Get().Hits++
	fmt.Println(c.Get().Hits)

	if err := c.Destroy(); err != nil {
		panic(err)
	}

	// Output: 2
}
