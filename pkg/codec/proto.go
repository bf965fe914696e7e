package codec

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var deterministic = proto.MarshalOptions{Deterministic: true}

// Proto stores the document as a google.protobuf.Value. Numbers become float64 and []byte becomes a base64 string,
// as defined by structpb.NewValue.
type Proto struct{}

func (Proto) Marshal(v any) ([]byte, error) {
	value, err := structpb.NewValue(v)
	if err != nil {
		return nil, err
	}
	return deterministic.Marshal(value)
}

func (Proto) Unmarshal(data []byte, v *any) error {
	value := new(structpb.Value)
	if err := proto.Unmarshal(data, value); err != nil {
		return err
	}
	*v = value.AsInterface()
	return nil
}

func (Proto) Method() Method { return MethodProto }
