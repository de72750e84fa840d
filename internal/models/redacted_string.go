package models

import "fmt"

// RedactedString holds a secret value. Every serialization and formatting
// path reveals only the length of the secret, never the secret itself. Code
// that truly needs the value has to convert back with PlainText.
type RedactedString string

func (r RedactedString) String() string {
	return fmt.Sprintf("<redacted-%d-chars>", len(r))
}

func (r RedactedString) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r RedactedString) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", r.String())), nil
}

func (r RedactedString) MarshalBinary() ([]byte, error) {
	return []byte(r.String()), nil
}

// PlainText returns the secret itself.
func (r RedactedString) PlainText() string {
	return string(r)
}
