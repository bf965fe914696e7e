package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// document is representable by every codec without loss: float64 numbers only.
var document = map[string]any{
	"a":      float64(1),
	"name":   "alpha",
	"nested": map[string]any{"ok": true, "list": []any{"x", float64(2.5), nil}},
}

func TestByMethod(t *testing.T) {
	for _, method := range Methods {
		t.Run(string(method), func(t *testing.T) {
			codec, err := ByMethod(method)
			require.NoError(t, err)
			assert.Equal(t, method, codec.Method())
		})
	}
	_, err := ByMethod("php-serialize")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestCodecs_RoundTrip(t *testing.T) {
	for _, method := range Methods {
		codec, err := ByMethod(method)
		require.NoError(t, err)
		for _, testCase := range []struct {
			name  string
			value any
		}{
			{name: "document", value: document},
			{name: "string", value: "plain"},
			{name: "list", value: []any{"a", true}},
			{name: "nil", value: nil},
		} {
			t.Run(string(method)+"/"+testCase.name, func(t *testing.T) {
				data, err := codec.Marshal(testCase.value)
				require.NoError(t, err)
				var got any
				require.NoError(t, codec.Unmarshal(data, &got))
				assert.Equal(t, testCase.value, got)
			})
		}
	}
}

func TestGob_KeepsNativeShapes(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	value := map[string]any{"count": int64(7), "raw": []byte{1, 2, 3}, "at": at}
	data, err := Gob{}.Marshal(value)
	require.NoError(t, err)

	var got any
	require.NoError(t, Gob{}.Unmarshal(data, &got))
	gotMap, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(7), gotMap["count"])
	assert.Equal(t, []byte{1, 2, 3}, gotMap["raw"])
	assert.True(t, at.Equal(gotMap["at"].(time.Time)))
}

type registeredPoint struct{ X, Y int }

func TestGob_RegisteredType(t *testing.T) {
	RegisterGobType(registeredPoint{})
	data, err := Gob{}.Marshal(registeredPoint{X: 1, Y: 2})
	require.NoError(t, err)
	var got any
	require.NoError(t, Gob{}.Unmarshal(data, &got))
	assert.Equal(t, registeredPoint{X: 1, Y: 2}, got)
}

func TestJSON_NumbersDecodeAsFloat(t *testing.T) {
	data, err := JSON{}.Marshal(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
	var got any
	require.NoError(t, JSON{}.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{"a": float64(1)}, got)
}

func TestProto_RejectsUnsupportedValues(t *testing.T) {
	_, err := Proto{}.Marshal(make(chan int))
	assert.Error(t, err)
}

// TestCodecs_MismatchFails shows that the codec is not discoverable from the bytes.
func TestCodecs_MismatchFails(t *testing.T) {
	data, err := Gob{}.Marshal(document)
	require.NoError(t, err)
	var got any
	assert.Error(t, JSON{}.Unmarshal(data, &got))
}
