package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeEmptyOrder          = "EMPTY_ORDER"
	ErrCodeInvalidLineItem     = "INVALID_LINE_ITEM"
	ErrCodeInvalidStatus       = "INVALID_STATUS"
	ErrCodeNothingToUpdate     = "NOTHING_TO_UPDATE"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeInvalidResetCode    = "INVALID_RESET_CODE"
	ErrCodeUnauthenticated     = "UNAUTHENTICATED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeOrderCreationFailed = "ORDER_CREATION_FAILED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// AsDomainError unwraps err into a DomainError when it carries one.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain errors
var (
	ErrUnauthenticated     = NewDomainError(ErrCodeUnauthenticated, "Usuário não autenticado.")
	ErrForbidden           = NewDomainError(ErrCodeForbidden, "Proibido")
	ErrEmptyOrder          = NewDomainError(ErrCodeEmptyOrder, "O pedido deve conter pelo menos 1 item.")
	ErrInvalidLineItem     = NewDomainError(ErrCodeInvalidLineItem, "Campos inválidos em um dos itens.")
	ErrInvalidStatus       = NewDomainError(ErrCodeInvalidStatus, "Status inválido.")
	ErrNothingToUpdate     = NewDomainError(ErrCodeNothingToUpdate, "Nada para atualizar.")
	ErrOrderNotFound       = NewDomainError(ErrCodeNotFound, "Pedido não encontrado.")
	ErrOrderFinalized      = NewDomainError(ErrCodeConflict, "Pedido já finalizado não pode mudar de status.")
	ErrOrderCreationFailed = NewDomainError(ErrCodeOrderCreationFailed, "Erro ao criar pedido")
	ErrProductNotFound     = NewDomainError(ErrCodeNotFound, "Produto não encontrado")
	ErrUserNotFound        = NewDomainError(ErrCodeNotFound, "Usuário não encontrado")
	ErrEmailTaken          = NewDomainError(ErrCodeConflict, "Email já cadastrado")
	ErrUserHasOrders       = NewDomainError(ErrCodeConflict, "Usuário possui pedidos e não pode ser removido")
	ErrProductInUse        = NewDomainError(ErrCodeConflict, "Produto já vendido não pode ser removido")
	ErrInvalidCredentials  = NewDomainError(ErrCodeInvalidCredentials, "Credenciais inválidas")
	ErrInvalidResetCode    = NewDomainError(ErrCodeInvalidResetCode, "Código inválido.")
)

// NewInvalidInputError reports a client input problem with a specific message.
func NewInvalidInputError(message string) *DomainError {
	return NewDomainError(ErrCodeInvalidInput, message)
}
