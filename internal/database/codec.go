package database

import "encoding/json"

// List-valued fields are stored as JSON text columns. Encoding maps
// empty slices to NULL so the columns stay clean for ad hoc queries.

func encodeStrings(v []string) *string {
	if len(v) == 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

func decodeStrings(s *string) []string {
	if s == nil || *s == "" {
		return nil
	}
	var v []string
	if err := json.Unmarshal([]byte(*s), &v); err != nil {
		return nil
	}
	return v
}

func encodeIDs(v []int64) *string {
	if len(v) == 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

func decodeIDs(s *string) []int64 {
	if s == nil || *s == "" {
		return nil
	}
	var v []int64
	if err := json.Unmarshal([]byte(*s), &v); err != nil {
		return nil
	}
	return v
}
