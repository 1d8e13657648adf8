package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ledger (LED) ----

func ErrInsufficientFunds() *AppError {
	return New("LED_001", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrInvalidAmount() *AppError {
	return New("LED_002", "Invalid amount", http.StatusBadRequest)
}

func ErrAccountNotFound() *AppError {
	return New("LED_003", "Wallet account not found", http.StatusNotFound)
}

// ---- Transactions (TXN) ----

func ErrDuplicateTransaction() *AppError {
	return New("TXN_001", "Transaction already processed", http.StatusConflict)
}

func ErrDuplicateReference() *AppError {
	return New("TXN_002", "Payment reference already processed", http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("TXN_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Webhooks (WBH) ----

func ErrInvalidWebhookSignature() *AppError {
	return New("WBH_001", "Invalid webhook signature", http.StatusUnauthorized)
}

func ErrDuplicateWebhook() *AppError {
	return New("WBH_002", "Webhook already processed", http.StatusConflict)
}

func ErrGatewayVerificationFailed() *AppError {
	return New("WBH_003", "Gateway transaction verification failed", http.StatusUnauthorized)
}

func ErrUnknownWebhookAction() *AppError {
	return New("WBH_004", "Unsupported webhook action", http.StatusBadRequest)
}

// ---- Investments (INV) ----

func ErrListingNotFound() *AppError {
	return New("INV_001", "Listing not found", http.StatusNotFound)
}

func ErrInsufficientTokens() *AppError {
	return New("INV_002", "Listing has insufficient tokens available", http.StatusConflict)
}

func ErrPortfolioNotFound() *AppError {
	return New("INV_003", "Portfolio not found", http.StatusNotFound)
}

func ErrInvalidPortfolioState(state string) *AppError {
	return New("INV_004", fmt.Sprintf("Portfolio cannot transition from %s", state), http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a LED_002-style validation error with a custom message.
func Validation(message string) *AppError {
	return New("LED_002", message, http.StatusBadRequest)
}
