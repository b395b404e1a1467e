package fs

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tastewalk/pkg/core"
)

// DefaultCodecs returns the snapshot formats known by name.
func DefaultCodecs() map[string]core.Codec {
	return map[string]core.Codec{
		"json": NewJSONCodec(),
		"yaml": NewYAMLCodec(),
		"yml":  NewYAMLCodec(),
	}
}

// CodecFor returns the codec registered under format.
func CodecFor(format string) (core.Codec, error) {
	c, ok := DefaultCodecs()[format]
	if !ok {
		return nil, fmt.Errorf("unknown snapshot format %q", format)
	}
	return c, nil
}

// --- JSON Codec ---

// JSONCodec reads and writes indented JSON snapshots.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Ext() string { return ".json" }

func (c *JSONCodec) Marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func (c *JSONCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// --- YAML Codec ---

// YAMLCodec reads and writes YAML snapshots.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

func (c *YAMLCodec) Ext() string { return ".yaml" }

func (c *YAMLCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *YAMLCodec) Unmarshal(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid yaml: %w", err)
	}
	return nil
}
