package types

import "encoding/json"

// SecretString holds a credential such as a Redis password or a Postgres
// DSN. It prints and marshals as "[REDACTED]" so config dumps stay safe.
type SecretString struct {
	value string
}

// NewSecretString wraps value.
func NewSecretString(value string) SecretString {
	return SecretString{value: value}
}

// Value returns the unredacted secret.
func (s SecretString) Value() string {
	return s.value
}

func (s SecretString) String() string {
	if s.value == "" {
		return ""
	}
	return "[REDACTED]"
}

func (s SecretString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SecretString) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	s.value = value
	return nil
}

// MarshalYAML redacts the value in YAML output.
func (s SecretString) MarshalYAML() (any, error) {
	return s.String(), nil
}

// UnmarshalYAML reads a plain YAML scalar.
func (s *SecretString) UnmarshalYAML(unmarshal func(any) error) error {
	var value string
	if err := unmarshal(&value); err != nil {
		return err
	}
	s.value = value
	return nil
}

// IsEmpty reports whether the secret is unset.
func (s SecretString) IsEmpty() bool {
	return s.value == ""
}
