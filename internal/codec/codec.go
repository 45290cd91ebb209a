package codec

import (
	"errors"
	"fmt"
	"math"

	"github.com/danielpatrickdp/multiseq-learning/internal/classifier"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region names
const (
	ServiceName   = "multiseq.Predictor"
	PredictMethod = "/" + ServiceName + "/Predict"
)

var ErrBadRequest = errors.New("bad predict request")

// #endregion names

// #region query
// Query is one Predict request: either a raw date string or explicit active bits.
type Query struct {
	Input string
	Bits  []int
}

// EncodeQuery builds the wire message {"input": ...} or {"bits": [...]}.
func EncodeQuery(q Query) (*structpb.Struct, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	fields := make(map[string]any, 1)
	if q.Input != "" {
		fields["input"] = q.Input
	} else {
		bits := make([]any, len(q.Bits))
		for i, b := range q.Bits {
			bits[i] = b
		}
		fields["bits"] = bits
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return s, nil
}

// DecodeQuery parses a request message. Unknown fields are ignored.
func DecodeQuery(s *structpb.Struct) (Query, error) {
	var q Query
	fields := s.GetFields()

	if v, ok := fields["input"]; ok {
		str, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return Query{}, fmt.Errorf("%w: input must be a string", ErrBadRequest)
		}
		q.Input = str.StringValue
	}

	if v, ok := fields["bits"]; ok {
		list := v.GetListValue()
		if list == nil {
			return Query{}, fmt.Errorf("%w: bits must be a list", ErrBadRequest)
		}
		for i, item := range list.GetValues() {
			n, ok := item.GetKind().(*structpb.Value_NumberValue)
			if !ok || n.NumberValue < 0 || n.NumberValue != math.Trunc(n.NumberValue) {
				return Query{}, fmt.Errorf("%w: bits[%d] is not a non-negative integer", ErrBadRequest, i)
			}
			q.Bits = append(q.Bits, int(n.NumberValue))
		}
	}

	if err := q.check(); err != nil {
		return Query{}, err
	}
	return q, nil
}

func (q Query) check() error {
	switch {
	case q.Input == "" && len(q.Bits) == 0:
		return fmt.Errorf("%w: need input or bits", ErrBadRequest)
	case q.Input != "" && len(q.Bits) > 0:
		return fmt.Errorf("%w: input and bits are exclusive", ErrBadRequest)
	}
	return nil
}

// #endregion query

// #region predictions
// EncodePredictions builds {"predictions": [{"label", "similarity", "same_bits"}]}.
// An empty result list encodes as an empty array.
func EncodePredictions(results []classifier.Result) (*structpb.Struct, error) {
	preds := make([]any, len(results))
	for i, r := range results {
		preds[i] = map[string]any{
			"label":      r.PredictedInput,
			"similarity": r.Similarity,
			"same_bits":  r.NumOfSameBits,
		}
	}
	s, err := structpb.NewStruct(map[string]any{"predictions": preds})
	if err != nil {
		return nil, fmt.Errorf("encode predictions: %w", err)
	}
	return s, nil
}

// DecodePredictions reads the ranked results back out of a response message.
func DecodePredictions(s *structpb.Struct) ([]classifier.Result, error) {
	v, ok := s.GetFields()["predictions"]
	if !ok {
		return nil, fmt.Errorf("decode predictions: missing predictions field")
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("decode predictions: predictions is not a list")
	}

	out := make([]classifier.Result, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		f := item.GetStructValue().GetFields()
		if f == nil {
			return nil, fmt.Errorf("decode predictions: entry %d is not an object", i)
		}
		out = append(out, classifier.Result{
			PredictedInput: f["label"].GetStringValue(),
			Similarity:     f["similarity"].GetNumberValue(),
			NumOfSameBits:  int(f["same_bits"].GetNumberValue()),
		})
	}
	return out, nil
}

// #endregion predictions
