package prompt

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrPasswordMismatch indicates the confirmation differs from the password.
var ErrPasswordMismatch = errors.New("passwords do not match")

// MinPasswordLength is enforced by NewPassword.
const MinPasswordLength = 8

// Password reads a masked password of at least minLength characters.
func Password(label string, minLength int) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: atLeast(minLength),
	}
	result, err := p.Run()
	return result, wrapError(err)
}

// NewPassword reads a password and its confirmation.
func NewPassword() (string, error) {
	password, err := Password("Password", MinPasswordLength)
	if err != nil {
		return "", err
	}
	confirm, err := Password("Confirm password", 0)
	if err != nil {
		return "", err
	}
	return matchConfirmation(password, confirm)
}

func atLeast(n int) promptui.ValidateFunc {
	return func(input string) error {
		if len(input) < n {
			return fmt.Errorf("password must be at least %d characters", n)
		}
		return nil
	}
}

func matchConfirmation(password, confirm string) (string, error) {
	if password != confirm {
		return "", ErrPasswordMismatch
	}
	return password, nil
}
