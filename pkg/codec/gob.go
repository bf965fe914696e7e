package codec

import (
	"bytes"
	"encoding/gob"
	"time"
)

// gobEnvelope carries the document as an interface field; gob can only transmit interface values inside a struct.
type gobEnvelope struct {
	Value any
}

func init() {
	// Concrete types that may sit behind an `any` inside a document. gob registers the scalar basics itself.
	for _, value := range []any{map[string]any{}, []any{}, time.Time{}} {
		gob.Register(value)
	}
}

// RegisterGobType makes a caller-defined type storable inside gob documents. It must be called identically in every
// process reading or writing the cache, typically from an init function.
func RegisterGobType(value any) {
	gob.Register(value)
}

// Gob is the Go-native codec: it round-trips Go shapes JSON can't (int64, []byte, time.Time, registered structs).
type Gob struct{}

func (Gob) Marshal(v any) ([]byte, error) {
	buffer := new(bytes.Buffer)
	if err := gob.NewEncoder(buffer).Encode(gobEnvelope{Value: v}); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (Gob) Unmarshal(data []byte, v *any) error {
	var envelope gobEnvelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&envelope); err != nil {
		return err
	}
	*v = envelope.Value
	return nil
}

func (Gob) Method() Method { return MethodGob }
