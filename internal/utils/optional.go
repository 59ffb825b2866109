package utils

import "encoding/json"

// Optional distinguishes a JSON field that was omitted from one that was
// explicitly set, including an explicit null. Partial updates use it so
// that omitted fields never clobber stored values.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Apply records the field in a gorm update map when it was present in the
// request: explicit null clears the column, a value overwrites it.
func (o Optional[T]) Apply(updates map[string]interface{}, column string) {
	if !o.Set {
		return
	}
	if o.Null {
		updates[column] = nil
		return
	}
	updates[column] = o.Value
}
