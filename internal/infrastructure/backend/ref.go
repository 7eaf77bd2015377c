package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ref is a foreign key the API sends either as a bare id or as an object
// carrying an id, sometimes nested twice
type Ref int64

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = 0
		return nil
	}

	if data[0] == '{' {
		var obj struct {
			ID Ref `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*r = obj.ID
		return nil
	}

	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("invalid reference %s: %w", data, err)
	}
	*r = Ref(id)
	return nil
}

// FirstRef returns the first non-zero reference, for payloads that carry
// the same key under more than one name
func FirstRef(refs ...Ref) int64 {
	for _, r := range refs {
		if r != 0 {
			return int64(r)
		}
	}
	return 0
}
