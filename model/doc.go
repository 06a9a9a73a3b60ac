// Package model defines the read-only graph description consumed by the
// executor: tensors, constant buffers, operator records and the graph's
// input/output bindings.
//
// A Graph is immutable once built. It owns no runtime storage; binding
// tensors to arena memory is the allocator's job. One Graph may be shared by
// reference across any number of interpreter instances, and must outlive all
// of them.
//
// Graphs are constructed programmatically with Builder or loaded from a
// serialized container (see Save/Load). Container payloads are encoded with
// a named codec and optionally compressed; the header makes the file
// self-describing.
package model
