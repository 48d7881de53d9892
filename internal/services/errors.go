package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Lllllllleong/trackabledocs/internal/sheet"
)

// UnexpectedError wraps any failure that is not the client's fault.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected failure: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err was caused by the submitted spreadsheet.
func IsClientError(err error) bool {
	var parseErr *sheet.ParseError
	var validationErr *sheet.ValidationError
	return errors.As(err, &parseErr) || errors.As(err, &validationErr)
}

// StatusCode maps a Process error to its HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the client-facing text for a Process error.
func UserMessage(err error) string {
	var validationErr *sheet.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message()
	}
	var parseErr *sheet.ParseError
	if errors.As(err, &parseErr) {
		if errors.Is(err, sheet.ErrUnsupportedFormat) {
			return unsupportedFormatMessage
		}
		return fmt.Sprintf("Não foi possível ler o arquivo enviado como %s: %v", parseErr.Format, parseErr.Err)
	}
	var unexpectedErr *UnexpectedError
	if errors.As(err, &unexpectedErr) {
		err = unexpectedErr.Err
	}
	return fmt.Sprintf("Erro inesperado ao processar o arquivo: %v", err)
}

const (
	unsupportedFormatMessage = "Formato de arquivo não suportado. Envie um arquivo .csv, .xls ou .xlsx."
	missingFileMessage       = "Nenhum arquivo enviado. Use o campo 'file'."
	tooLargeMessage          = "O arquivo enviado excede o tamanho máximo permitido."
	badRequestMessage        = "Requisição inválida: envie o arquivo como multipart/form-data."
)
