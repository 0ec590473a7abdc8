// ABOUTME: Conversion between typed models and store records
// ABOUTME: Round-trips through JSON so struct tags define the document shape
package db

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Encode converts a typed model into a Record. Zero-valued reserved keys are
// dropped so the store assigns them.
func Encode(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	if id, ok := r[FieldID].(string); ok && id == "" {
		delete(r, FieldID)
	}
	delete(r, FieldCreatedAt)
	delete(r, FieldUpdatedAt)
	return r, nil
}

// Decode fills out from a Record.
func Decode(r Record, out any) error {
	if r == nil {
		return ErrNotFound
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode record %s: %w", r.ID(), err)
	}
	return nil
}

// DecodeAll decodes every record into a T, skipping none.
func DecodeAll[T any](records []Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, r := range records {
		var v T
		if err := Decode(r, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// marshalRecord and unmarshalRecord are the on-disk encoding for backends that
// store whole documents.
func marshalRecord(r Record) ([]byte, error) {
	return json.Marshal(r)
}

func unmarshalRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return r, nil
}
