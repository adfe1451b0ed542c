package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/sylphxltd/zen-sub001"
)

func main() {
	graph := flag.Bool("graph", false, "print the dependency graph of the demo computation before exiting")
	flag.Parse()

	o := zen.NewOwner()

	var sum *zen.Computed[int]

	o.Run(func() error {
		a := zen.NewSignal(1)
		b := zen.NewSignal(2)
		zen.SetName(a, "a")
		zen.SetName(b, "b")

		sum = zen.NewComputed(func() int {
			result := a.Read() + b.Read()
			fmt.Println("  [COMPUTED] sum:", result)
			return result
		})

		zen.NewEffect(func() {
			fmt.Println("  [EFFECT] sum is:", sum.Read())
		})

		fmt.Println("\nUpdating both a and b in a batch...")
		zen.NewBatch(func() {
			a.Write(10)
			b.Write(20)
		})

		fmt.Println("\nExpected: sum recomputes once (30)")
		return nil
	})

	if *graph {
		fmt.Println(zen.DumpGraph(sum))
	}

	time.Sleep(100 * time.Millisecond)
	o.Dispose()
}
