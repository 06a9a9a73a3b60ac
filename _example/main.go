package main

import (
	"bytes"
	"fmt"
	"log"
	"log/slog"

	"github.com/edge-ml/tinygraph"
	"github.com/edge-ml/tinygraph/model"
	"github.com/edge-ml/tinygraph/ops"
)

func main() {
	// Describe a tiny graph: relu(a + b).
	b := model.NewBuilder("demo")
	a := b.AddTensor("a", model.Float32, []int{4})
	c := b.AddTensor("b", model.Float32, []int{4})
	sum := b.AddTensor("sum", model.Float32, []int{4})
	out := b.AddTensor("out", model.Float32, []int{4})
	b.AddOperator(ops.OpAdd, []int{a, c}, []int{sum})
	b.AddOperator(ops.OpRelu, []int{sum}, []int{out})
	b.SetInputs(a, c)
	b.SetOutputs(out)

	graph, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	// Round-trip through the serialized container, as a deployment would.
	var container bytes.Buffer
	if err := model.Save(&container, graph); err != nil {
		log.Fatal(err)
	}
	loaded, err := model.Load(&container)
	if err != nil {
		log.Fatal(err)
	}

	// Run it inside a 4 KiB arena.
	itp := tinygraph.NewWithArena(loaded, ops.Builtins(), make([]byte, 4096),
		tinygraph.WithLogLevel(slog.LevelDebug))
	defer itp.Close()

	if err := itp.AllocateTensors(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("arena used bytes:", itp.ArenaUsedBytes())

	copy(itp.Input(0).Float32s(), []float32{1, -2, 3, -4})
	copy(itp.Input(1).Float32s(), []float32{1, 1, -5, 1})

	if err := itp.Invoke(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("relu(a + b) =", itp.Output(0).Float32s())
}
