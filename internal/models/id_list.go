package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// IDList is an ordered list of entity ids stored as a JSON text column.
// Sections use it to keep their tasks in board order.
type IDList []uint

func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		l = IDList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *IDList) Scan(value interface{}) error {
	if value == nil {
		*l = IDList{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into IDList", value)
	}

	if len(data) == 0 {
		*l = IDList{}
		return nil
	}
	return json.Unmarshal(data, l)
}

// Contains reports whether id is present.
func (l IDList) Contains(id uint) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Remove returns the list with every occurrence of id removed.
func (l IDList) Remove(id uint) IDList {
	out := make(IDList, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
