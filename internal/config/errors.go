package config

import "fmt"

func NewReadError(path string, err error) error {
	return fmt.Errorf("failed to read config file %q: %w", path, err)
}

func NewParseError(path string, err error) error {
	return fmt.Errorf("failed to parse config file %q: %w", path, err)
}
