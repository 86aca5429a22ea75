package auth

import (
	"errors"

	"controle/internal/core"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password too short")
	ErrPasswordTooLong    = errors.New("password too long")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrNameRequired       = errors.New("name required")
	ErrNoSession          = errors.New("no session")
)

const (
	// MinPasswordLen is the shortest accepted password.
	MinPasswordLen = 6
	// MaxPasswordLen is the bcrypt input limit, in bytes.
	MaxPasswordLen = 72
)

// Message maps an auth error to the text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "E-mail ou senha inválidos."
	case errors.Is(err, core.ErrEmailTaken):
		return "E-mail já cadastrado."
	case errors.Is(err, ErrWeakPassword):
		return "Senha deve ter pelo menos 6 caracteres."
	case errors.Is(err, ErrPasswordTooLong):
		return "Senha deve ter no máximo 72 caracteres."
	case errors.Is(err, ErrInvalidEmail):
		return "E-mail inválido."
	case errors.Is(err, ErrNameRequired):
		return "Informe seu nome."
	case errors.Is(err, ErrNoSession):
		return "Faça login para continuar."
	default:
		return "Ocorreu um erro desconhecido."
	}
}
