// Package tinygraph executes static neural-network graphs inside one
// caller-supplied fixed-size memory arena, with no allocation from the Go
// heap on the invoke path.
//
// An Interpreter binds an immutable model.Graph to an arena through an
// allocation pass that plans tensor and scratch storage by lifetime, then
// walks the operator list on every Invoke. Several interpreters may share
// one allocator; see package allocator for the multi-tenant contract.
//
// Basic usage:
//
//	itp := tinygraph.NewWithArena(graph, ops.Builtins(), make([]byte, 4096))
//	defer itp.Close()
//
//	if err := itp.AllocateTensors(); err != nil {
//		log.Fatal(err)
//	}
//	itp.Input(0).Float32s()[0] = 1.5
//	if err := itp.Invoke(); err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(itp.Output(0).Float32s()[0])
package tinygraph
