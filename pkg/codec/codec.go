// Cached values are schema-free documents: nil, bools, numbers, strings, []any and map[string]any. A codec turns such
// a document into bytes and back. Files carry no marker of the codec that wrote them, so the codec is fixed for the
// lifetime of a cache directory; reading with another codec yields a decode error or garbage, never a fallback.

package codec

import (
	"errors"
	"fmt"
)

var ErrUnknownMethod = errors.New("unknown serialization method")

// Method is the stable name of a serialization method, as used in flags.
type Method string

const (
	MethodJSON  Method = "json"  // Portable and fast; numbers decode as float64.
	MethodGob   Method = "gob"   // Go-native; keeps integer widths, []byte, time.Time and registered types.
	MethodProto Method = "proto" // google.protobuf.Value wire format; readable from any protobuf runtime.
)

// Methods lists every supported method.
var Methods = []Method{MethodJSON, MethodGob, MethodProto}

// Codec encodes/decodes documents. Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes `data` into the document pointed to by `v`, which must be a *any.
	Unmarshal(data []byte, v *any) error
	Method() Method
}

// ByMethod returns the codec registered under `method`.
func ByMethod(method Method) (Codec, error) {
	switch method {
	case MethodJSON:
		return JSON{}, nil
	case MethodGob:
		return Gob{}, nil
	case MethodProto:
		return Proto{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}
