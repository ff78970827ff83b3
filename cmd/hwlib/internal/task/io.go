package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadInput reads path, or r when path is empty.
func ReadInput(path string, r io.Reader) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(r)
}

// ParseInputs decodes either one JSON object or an array of them. The flag
// reports whether the input was an array.
func ParseInputs[T any](raw []byte) ([]T, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var inputs []T
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, err
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("empty input array")
		}
		return inputs, true, nil
	}
	var input T
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, err
	}
	return []T{input}, false, nil
}

// WriteOutputs prints the outputs in the shape of the input.
func WriteOutputs[T any](w io.Writer, outputs []T, isArray bool) error {
	var v any = outputs
	if !isArray && len(outputs) == 1 {
		v = outputs[0]
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
