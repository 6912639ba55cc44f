package store

import (
	"encoding/json"
	"fmt"

	"github.com/fenwick-labs/raciforge/internal/matrix"
)

// marshalCellMap serializes an activity's cell map for the activities
// table. encoding/json sorts map keys, so the stored text is stable for
// identical maps.
func marshalCellMap(m map[string]matrix.CellRef) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal cell map: %w", err)
	}
	return string(data), nil
}

// unmarshalCellMap restores a cell map from its stored form.
func unmarshalCellMap(raw string) (map[string]matrix.CellRef, error) {
	var m map[string]matrix.CellRef
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("unmarshal cell map: %w", err)
	}
	return m, nil
}
