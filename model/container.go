package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/edge-ml/tinygraph/codec"
	"github.com/edge-ml/tinygraph/internal/mmap"
	"github.com/edge-ml/tinygraph/resource"
)

// Container magic, versioned. Layout:
//
//	[4]byte magic | u8 codec name length | codec name |
//	u8 compression type | compressed block (see codec.CompressBlock)
var containerMagic = [4]byte{'T', 'G', 'C', '1'}

var (
	// ErrBadMagic is returned when a container does not start with the
	// expected magic bytes.
	ErrBadMagic = errors.New("model: not a tinygraph container")
	// ErrUnknownCodec is returned when a container names a codec this
	// build does not provide.
	ErrUnknownCodec = errors.New("model: unknown container codec")
)

type tensorDoc struct {
	Name     string   `json:"name"`
	Type     DataType `json:"type"`
	Dims     []int    `json:"dims"`
	Variable bool     `json:"variable,omitempty"`
	Buffer   int      `json:"buffer"`
}

type operatorDoc struct {
	Op      string `json:"op"`
	Inputs  []int  `json:"inputs"`
	Outputs []int  `json:"outputs"`
}

type graphDoc struct {
	Name      string        `json:"name,omitempty"`
	Tensors   []tensorDoc   `json:"tensors"`
	Buffers   [][]byte      `json:"buffers,omitempty"`
	Operators []operatorDoc `json:"operators"`
	Inputs    []int         `json:"inputs"`
	Outputs   []int         `json:"outputs"`
}

type saveOptions struct {
	codec       codec.Codec
	compression codec.CompressionType
}

// SaveOption configures Save.
type SaveOption func(*saveOptions)

// WithCodec selects the structural codec recorded in the container header.
func WithCodec(c codec.Codec) SaveOption {
	return func(o *saveOptions) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCompression selects the payload compression.
func WithCompression(ct codec.CompressionType) SaveOption {
	return func(o *saveOptions) { o.compression = ct }
}

// Save writes g as a self-describing container.
func Save(w io.Writer, g *Graph, opts ...SaveOption) error {
	o := saveOptions{codec: codec.Default, compression: codec.CompressionZSTD}
	for _, fn := range opts {
		fn(&o)
	}

	doc := graphDoc{
		Name:      g.name,
		Buffers:   g.buffers,
		Inputs:    g.inputs,
		Outputs:   g.outputs,
		Tensors:   make([]tensorDoc, len(g.tensors)),
		Operators: make([]operatorDoc, len(g.ops)),
	}
	for i, ts := range g.tensors {
		doc.Tensors[i] = tensorDoc{Name: ts.Name, Type: ts.Type, Dims: ts.Dims, Variable: ts.Variable, Buffer: ts.Buffer}
	}
	for i, op := range g.ops {
		doc.Operators[i] = operatorDoc{Op: op.Op, Inputs: op.Inputs, Outputs: op.Outputs}
	}

	payload, err := o.codec.Marshal(doc)
	if err != nil {
		return fmt.Errorf("model: encode graph: %w", err)
	}
	block, err := codec.CompressBlock(payload, o.compression)
	if err != nil {
		return fmt.Errorf("model: compress graph: %w", err)
	}

	name := o.codec.Name()
	if len(name) > 255 {
		return fmt.Errorf("model: codec name %q too long", name)
	}

	var hdr bytes.Buffer
	hdr.Write(containerMagic[:])
	hdr.WriteByte(byte(len(name)))
	hdr.WriteString(name)
	hdr.WriteByte(byte(o.compression))

	if _, err := w.Write(hdr.Bytes()); err != nil {
		return err
	}
	_, err = w.Write(block)
	return err
}

// Load reads a container written by Save and rebuilds the Graph, running
// the same validation as Builder.Build.
func Load(r io.Reader) (*Graph, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

type loadOptions struct {
	rc *resource.Controller
}

// LoadOption configures LoadFile.
type LoadOption func(*loadOptions)

// WithIOController throttles container reads against rc's IO budget.
func WithIOController(rc *resource.Controller) LoadOption {
	return func(o *loadOptions) { o.rc = rc }
}

// LoadFile maps the container at path read-only and decodes it. The mapping
// is released before returning; decoded buffers do not alias the file.
func LoadFile(path string, opts ...LoadOption) (*Graph, error) {
	var o loadOptions
	for _, fn := range opts {
		fn(&o)
	}

	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	if err := o.rc.AcquireIO(context.Background(), m.Size()); err != nil {
		return nil, err
	}
	return decode(m.Bytes())
}

func decode(raw []byte) (*Graph, error) {
	if len(raw) < len(containerMagic)+2 {
		return nil, ErrBadMagic
	}
	if !bytes.Equal(raw[:4], containerMagic[:]) {
		return nil, ErrBadMagic
	}
	raw = raw[4:]

	nameLen := int(raw[0])
	if len(raw) < 1+nameLen+1 {
		return nil, ErrBadMagic
	}
	codecName := string(raw[1 : 1+nameLen])
	compression := codec.CompressionType(raw[1+nameLen])
	block := raw[1+nameLen+1:]

	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, codecName)
	}

	payload, err := codec.DecompressBlock(block, compression)
	if err != nil {
		return nil, fmt.Errorf("model: decompress graph: %w", err)
	}

	var doc graphDoc
	if err := c.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("model: decode graph: %w", err)
	}

	// Rebuild through the Builder so loaded containers get the same
	// structural validation as programmatic graphs.
	b := NewBuilder(doc.Name)
	for _, td := range doc.Tensors {
		switch {
		case td.Buffer != NoBuffer:
			if td.Buffer < 0 || td.Buffer >= len(doc.Buffers) {
				return nil, fmt.Errorf("model: tensor %q references unknown buffer %d", td.Name, td.Buffer)
			}
			b.AddConstant(td.Name, td.Type, td.Dims, doc.Buffers[td.Buffer])
		case td.Variable:
			b.AddVariable(td.Name, td.Type, td.Dims)
		default:
			b.AddTensor(td.Name, td.Type, td.Dims)
		}
	}
	for _, od := range doc.Operators {
		b.AddOperator(od.Op, od.Inputs, od.Outputs)
	}
	b.SetInputs(doc.Inputs...)
	b.SetOutputs(doc.Outputs...)
	return b.Build()
}
