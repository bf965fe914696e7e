package codec

import gojson "github.com/goccy/go-json"

// JSON is the schema-light codec, backed by github.com/goccy/go-json.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

func (JSON) Unmarshal(data []byte, v *any) error { return gojson.Unmarshal(data, v) }

func (JSON) Method() Method { return MethodJSON }
