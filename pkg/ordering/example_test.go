package ordering_test

import (
	"fmt"

	"github.com/matzehuels/logtower/pkg/dag"
	"github.com/matzehuels/logtower/pkg/ordering"
)

func ExampleFocusSorter() {
	// A feature branch forked from main at m1; input is newest first.
	g := dag.Build([]dag.Commit{
		{Hash: "f2", Parents: []string{"f1"}},
		{Hash: "m3", Parents: []string{"m2"}},
		{Hash: "f1", Parents: []string{"m1"}},
		{Hash: "m2", Parents: []string{"m1"}},
		{Hash: "m1"},
	})

	main, _ := g.NodeByHash("m3")
	layout := dag.NewLayout(g, ordering.FocusFirst(main))
	sorter := ordering.NewFocusSorter(ordering.Options{})

	for _, n := range sorter.Order(g, layout) {
		fmt.Print(g.Hash(n), " ")
	}
	fmt.Println()
	// Output:
	// f2 f1 m3 m2 m1
}
