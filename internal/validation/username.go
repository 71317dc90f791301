package validation

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrValidation помечает все ошибки проверки ввода
var ErrValidation = errors.New("validation failed")

// UsernamePattern определяет допустимый формат username
// Только латинские буквы (a-z, A-Z), цифры (0-9), нижнее подчеркивание (_)
// Длина: 3-32 символа
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const (
	// MinUsernameLen минимальная длина username
	MinUsernameLen = 3
	// MaxUsernameLen максимальная длина username
	MaxUsernameLen = 32
)

// ValidateUsername проверяет, что username соответствует требованиям
// Формат: только латинские буквы (a-z, A-Z), цифры (0-9), нижнее подчеркивание (_)
// Длина: 3-32 символа
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username cannot be empty", ErrValidation)
	}

	if len(username) < MinUsernameLen {
		return fmt.Errorf("%w: username must be at least %d characters long", ErrValidation, MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("%w: username must not exceed %d characters", ErrValidation, MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)", ErrValidation)
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю
// Минимум 6 символов, максимум 72 (предел bcrypt)
func ValidatePassword(password string) error {
	const (
		minPasswordLen = 6
		maxPasswordLen = 72
	)

	if password == "" {
		return fmt.Errorf("%w: password cannot be empty", ErrValidation)
	}

	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrValidation, minPasswordLen)
	}

	if len(password) > maxPasswordLen {
		return fmt.Errorf("%w: password must not exceed %d characters", ErrValidation, maxPasswordLen)
	}

	return nil
}
