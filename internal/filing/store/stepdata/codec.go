package stepdata

import (
	"bytes"
	"encoding/json"
	"fmt"

	"taxfile/internal/filing/ports"
)

// encode renders step data as a JSON object keyed by field name.
func encode(data ports.StepData) ([]byte, error) {
	if data == nil {
		data = ports.StepData{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode step data: %w", err)
	}
	return b, nil
}

// decode yields generic JSON values with numbers kept as json.Number, which
// is the shape the form state accepts on import.
func decode(b []byte) (ports.StepData, error) {
	out := ports.StepData{}
	if len(b) == 0 {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode step data: %w", err)
	}
	return out, nil
}
