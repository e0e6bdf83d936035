package config

import "encoding/json"

// SensitiveString is a string that redacts itself when printed or serialized.
// Use Value() to access the underlying secret.
type SensitiveString string

const redacted = "[REDACTED]"

func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s SensitiveString) GoString() string {
	return s.String()
}

func (s SensitiveString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Value returns the underlying secret value.
func (s SensitiveString) Value() string {
	return string(s)
}
