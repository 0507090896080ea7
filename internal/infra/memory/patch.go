package memory

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// patch applies a column→value map to a row the way a PostgREST PATCH does.
// Column names are the JSON names of the domain types; a nil value clears the column.
func patch(row any, updates map[string]any) error {
	current, err := json.Marshal(row)
	if err != nil {
		return err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(current, &fields); err != nil {
		return err
	}
	for k, v := range updates {
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	v := reflect.ValueOf(row).Elem()
	v.Set(reflect.Zero(v.Type()))
	if err := json.Unmarshal(merged, row); err != nil {
		return fmt.Errorf("patch: %w", err)
	}
	return nil
}
