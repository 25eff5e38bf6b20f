package predictor

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// orderedFeatures decodes the features object keeping key order, which
// is the column order the model was trained on. A bare array is accepted
// too.
type orderedFeatures struct {
	names  []string
	values []float64
}

func (f *orderedFeatures) UnmarshalJSON(data []byte) error {
	f.names, f.values = nil, nil
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch tok {
	case json.Delim('['):
		for dec.More() {
			v, err := featureValue(dec)
			if err != nil {
				return err
			}
			f.values = append(f.values, v)
		}
	case json.Delim('{'):
		for dec.More() {
			key, err := dec.Token()
			if err != nil {
				return err
			}
			name, ok := key.(string)
			if !ok {
				return fmt.Errorf("features: unexpected key %v", key)
			}
			v, err := featureValue(dec)
			if err != nil {
				return fmt.Errorf("features: %s: %w", name, err)
			}
			f.names = append(f.names, name)
			f.values = append(f.values, v)
		}
	default:
		return fmt.Errorf("features: expected object or array, got %v", tok)
	}
	_, err = dec.Token()
	return err
}

func featureValue(dec *json.Decoder) (float64, error) {
	tok, err := dec.Token()
	if err != nil {
		return 0, err
	}
	switch v := tok.(type) {
	case float64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("non-numeric value %v", tok)
	}
}
