package gormstore

import "encoding/json"

// JSON stored as text keeps the sample schema portable across sqlite,
// postgres, and mysql without dialect-specific column types.

func marshalJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalJSON(s string, out any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), out)
}
