package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"controle/internal/auth"
	"controle/internal/core"
	"controle/internal/entry"
	"controle/internal/log"
)

// AppError is the JSON API view of a failure.
type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrUnauthorized       = &AppError{http.StatusUnauthorized, "UNAUTHORIZED", "Faça login para continuar."}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "E-mail ou senha inválidos."}
	ErrEmailTaken         = &AppError{http.StatusConflict, "EMAIL_TAKEN", "E-mail já cadastrado."}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Requisição inválida."}
	ErrMissingFields      = &AppError{http.StatusUnprocessableEntity, "MISSING_FIELDS", entry.MsgMissingFields}
	ErrValidationFailed   = &AppError{http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Dados inválidos."}
	ErrInvalidAmount      = &AppError{http.StatusUnprocessableEntity, "INVALID_AMOUNT", "Valor inválido."}
	ErrInvalidDate        = &AppError{http.StatusUnprocessableEntity, "INVALID_DATE", "Data inválida."}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Movimentação não encontrada."}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "Você não tem permissão para alterar esta movimentação."}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "Ocorreu um erro inesperado."}
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func RespondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to encode response", log.FieldError, err)
	}
}

func RespondSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	RespondJSON(ctx, w, status, APIResponse{Success: true, Data: data})
}

func RespondAppError(ctx context.Context, w http.ResponseWriter, appErr *AppError) {
	RespondJSON(ctx, w, appErr.Status, APIResponse{
		Error: &APIError{Code: appErr.Code, Message: appErr.Message},
	})
}

// MapError translates domain and auth errors. Unknown errors become
// ErrInternalError and are logged.
func MapError(ctx context.Context, err error) *AppError {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, entry.ErrMissingFields):
		return ErrMissingFields
	case errors.Is(err, core.ErrNotFound):
		return ErrResourceNotFound
	case errors.Is(err, core.ErrNotOwner):
		return ErrForbidden
	case errors.Is(err, core.ErrEmailTaken):
		return ErrEmailTaken
	case errors.Is(err, auth.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, auth.ErrNoSession), errors.Is(err, core.ErrMissingOwner):
		return ErrUnauthorized
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrPasswordTooLong), errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrNameRequired):
		return &AppError{http.StatusUnprocessableEntity, "VALIDATION_FAILED", auth.Message(err)}
	case errors.Is(err, core.ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, core.ErrInvalidDate):
		return ErrInvalidDate
	case errors.Is(err, core.ErrEmptyDescription), errors.Is(err, core.ErrDescriptionTooLong),
		errors.Is(err, core.ErrInvalidKind), errors.Is(err, core.ErrInvalidExpenseKind),
		errors.Is(err, core.ErrInvalidStatus), errors.Is(err, core.ErrUnexpectedExpenseAttr),
		errors.Is(err, core.ErrVariableMustBePaid):
		return &AppError{http.StatusUnprocessableEntity, "VALIDATION_FAILED", validationMessage(err)}
	}
	log.FromContext(ctx).ErrorContext(ctx, "Unhandled error", log.FieldError, err)
	return ErrInternalError
}

// RespondDomainError writes err as a JSON envelope.
func RespondDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	RespondAppError(ctx, w, MapError(ctx, err))
}

// validationMessage is the Portuguese text of a movement validation error.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, entry.ErrMissingFields):
		return entry.MsgMissingFields
	case errors.Is(err, core.ErrInvalidAmount):
		return "Valor inválido."
	case errors.Is(err, core.ErrInvalidDate):
		return "Data inválida."
	case errors.Is(err, core.ErrEmptyDescription):
		return "Informe a descrição."
	case errors.Is(err, core.ErrDescriptionTooLong):
		return "Descrição muito longa (máximo 200 caracteres)."
	case errors.Is(err, core.ErrInvalidKind):
		return "Tipo de movimentação inválido."
	case errors.Is(err, core.ErrInvalidExpenseKind):
		return "Tipo de despesa inválido."
	case errors.Is(err, core.ErrInvalidStatus):
		return "Situação inválida."
	case errors.Is(err, core.ErrVariableMustBePaid):
		return "Despesas variáveis são sempre pagas."
	case errors.Is(err, core.ErrUnexpectedExpenseAttr):
		return "Receitas não têm tipo de despesa nem situação."
	}
	return "Dados inválidos."
}
