package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// It is the most portable, lowest-dependency option. Graph descriptions are
// plain structs of strings, ints and byte slices, all of which JSON handles.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used for newly-written containers.
//
// Existing containers are self-describing (the header stores the codec name)
// and are opened by selecting the appropriate codec by name.
var Default Codec = GoJSON{}
