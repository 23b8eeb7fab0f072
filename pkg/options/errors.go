package options

import "fmt"

func errNotPositive(flag string) error {
	return fmt.Errorf("--%s must be greater than zero", flag)
}

func errEmpty(flag string) error {
	return fmt.Errorf("--%s must not be empty", flag)
}
