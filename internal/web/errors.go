package web

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError: ошибка обработчика с HTTP-кодом и текстом для пользователя.
// Err: исходная причина, пишется только в лог.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func NotFound(msg string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: msg}
}

func BadRequest(msg string, err error) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg, Err: err}
}

func Internal(err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: "Internal server error", Err: err}
}

// asAppError: любая ошибка как AppError; неизвестные становятся 500.
func asAppError(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
