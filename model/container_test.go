package model

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edge-ml/tinygraph/codec"
	"github.com/edge-ml/tinygraph/resource"
)

func buildTestGraph(t *testing.T) *Graph {
	t.Helper()
	b := NewBuilder("container-test")
	x := b.AddTensor("x", Int32, []int{4})
	w := b.AddConstant("w", Float32, []int{2}, []byte{0, 0, 128, 63, 0, 0, 0, 64})
	state := b.AddVariable("state", Int32, []int{1})
	out := b.AddTensor("out", Int32, []int{4})
	b.AddOperator("SCALE", []int{x, w}, []int{out})
	b.AddOperator("COUNT", []int{out}, []int{state})
	b.SetInputs(x)
	b.SetOutputs(out)
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func assertGraphsEqual(t *testing.T, want, got *Graph) {
	t.Helper()
	assert.Equal(t, want.Name(), got.Name())
	require.Equal(t, want.NumTensors(), got.NumTensors())
	for i := 0; i < want.NumTensors(); i++ {
		assert.Equal(t, want.Tensor(i).Name, got.Tensor(i).Name)
		assert.Equal(t, want.Tensor(i).Type, got.Tensor(i).Type)
		assert.Equal(t, want.Tensor(i).Dims, got.Tensor(i).Dims)
		assert.Equal(t, want.Tensor(i).Variable, got.Tensor(i).Variable)
	}
	require.Equal(t, want.NumOperators(), got.NumOperators())
	for i := 0; i < want.NumOperators(); i++ {
		assert.Equal(t, want.Operator(i), got.Operator(i))
	}
	assert.Equal(t, want.Inputs(), got.Inputs())
	assert.Equal(t, want.Outputs(), got.Outputs())
}

func TestContainerRoundTrip(t *testing.T) {
	g := buildTestGraph(t)

	configs := []struct {
		name string
		opts []SaveOption
	}{
		{"defaults", nil},
		{"json_none", []SaveOption{WithCodec(codec.JSON{}), WithCompression(codec.CompressionNone)}},
		{"gojson_lz4", []SaveOption{WithCodec(codec.GoJSON{}), WithCompression(codec.CompressionLZ4)}},
		{"json_zstd", []SaveOption{WithCodec(codec.JSON{}), WithCompression(codec.CompressionZSTD)}},
	}
	for _, cfg := range configs {
		t.Run(cfg.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Save(&buf, g, cfg.opts...))

			got, err := Load(&buf)
			require.NoError(t, err)
			assertGraphsEqual(t, g, got)

			// Constant data must survive byte-for-byte.
			w := got.Tensor(1)
			assert.Equal(t, []byte{0, 0, 128, 63, 0, 0, 0, 64}, got.Buffer(w.Buffer))
		})
	}
}

func TestLoadFile(t *testing.T) {
	g := buildTestGraph(t)
	path := filepath.Join(t.TempDir(), "graph.tgc")

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, Save(f, g))
	require.NoError(t, f.Close())

	got, err := LoadFile(path)
	require.NoError(t, err)
	assertGraphsEqual(t, g, got)
}

func TestLoadFile_WithIOController(t *testing.T) {
	g := buildTestGraph(t)
	path := filepath.Join(t.TempDir(), "graph.tgc")

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, Save(f, g))
	require.NoError(t, f.Close())

	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	got, err := LoadFile(path, WithIOController(rc))
	require.NoError(t, err)
	assertGraphsEqual(t, g, got)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		_, err := Load(bytes.NewReader([]byte("GGUFxxxxxxxx")))
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Load(bytes.NewReader([]byte("TG")))
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("unknown codec", func(t *testing.T) {
		var buf bytes.Buffer
		buf.WriteString("TGC1")
		buf.WriteByte(7)
		buf.WriteString("msgpack")
		buf.WriteByte(byte(codec.CompressionNone))
		buf.Write([]byte{0, 0, 0, 0, 0, 0, 0, 0})
		_, err := Load(&buf)
		assert.ErrorIs(t, err, ErrUnknownCodec)
	})
}
