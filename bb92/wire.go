package bb92

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

// Literal strings shared with the peer implementation. Changing any of these
// breaks interoperability.
const (
	headerBases        = "Bases"
	headerTestIndices  = "Test indices"
	headerTestOutcomes = "Test outcomes"
	msgAck             = "ACK"
	msgAllMeasured     = "All qubits measured"
)

// A message is one logical unit on the classical channel: a short literal
// header plus an optional structured payload.
type message struct {
	header  string
	payload *structpb.ListValue
}

func (m *message) toProto() *structpb.Struct {
	fields := map[string]*structpb.Value{
		"header": structpb.NewStringValue(m.header),
	}
	if m.payload != nil {
		fields["payload"] = structpb.NewListValue(m.payload)
	}
	return &structpb.Struct{Fields: fields}
}

func messageFromProto(s *structpb.Struct) (*message, error) {
	hv, ok := s.Fields["header"]
	if !ok {
		return nil, errors.New("message missing header")
	}
	m := &message{header: hv.GetStringValue()}
	if pv, ok := s.Fields["payload"]; ok {
		m.payload = pv.GetListValue()
	}
	return m, nil
}

// An indexedBit is one (index, value) element of a payload list. Basis
// announcements and test outcomes both travel in this shape.
type indexedBit struct {
	index int
	value byte
}

func indexedBitsPayload(els []indexedBit) *structpb.ListValue {
	vals := make([]*structpb.Value, len(els))
	for i, el := range els {
		vals[i] = structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{
			structpb.NewNumberValue(float64(el.index)),
			structpb.NewNumberValue(float64(el.value)),
		}})
	}
	return &structpb.ListValue{Values: vals}
}

func parseIndexedBits(lv *structpb.ListValue) ([]indexedBit, error) {
	if lv == nil {
		return nil, errors.New("missing payload")
	}
	els := make([]indexedBit, 0, len(lv.Values))
	for i, v := range lv.Values {
		pair := v.GetListValue()
		if pair == nil || len(pair.Values) != 2 {
			return nil, errors.Errorf("payload element %d is not an (index, value) pair", i)
		}
		els = append(els, indexedBit{
			index: int(pair.Values[0].GetNumberValue()),
			value: byte(pair.Values[1].GetNumberValue()),
		})
	}
	return els, nil
}

func indicesPayload(idxs []int) *structpb.ListValue {
	vals := make([]*structpb.Value, len(idxs))
	for i, idx := range idxs {
		vals[i] = structpb.NewNumberValue(float64(idx))
	}
	return &structpb.ListValue{Values: vals}
}

func parseIndices(lv *structpb.ListValue) ([]int, error) {
	if lv == nil {
		return nil, errors.New("missing payload")
	}
	idxs := make([]int, 0, len(lv.Values))
	for i, v := range lv.Values {
		if _, ok := v.Kind.(*structpb.Value_NumberValue); !ok {
			return nil, errors.Errorf("payload element %d is not an index", i)
		}
		idxs = append(idxs, int(v.GetNumberValue()))
	}
	return idxs, nil
}
