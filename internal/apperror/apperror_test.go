package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfThroughWrapping(t *testing.T) {
	base := New(CodeInsufficientStock, "not enough stock for SKU-1")
	wrapped := fmt.Errorf("reserve stock: %w", base)

	assert.Equal(t, CodeInsufficientStock, CodeOf(wrapped))
	assert.True(t, Is(wrapped, CodeInsufficientStock))
	assert.False(t, Is(wrapped, CodeEmptyCart))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.False(t, Is(errors.New("boom"), CodeInternal))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(CodeGateway, cause, "create paypal order")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "GATEWAY: create paypal order: connection reset", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeUnauthorized:      http.StatusUnauthorized,
		CodeInvalidSignature:  http.StatusUnauthorized,
		CodeForbidden:         http.StatusForbidden,
		CodeNotFound:          http.StatusNotFound,
		CodeValidation:        http.StatusBadRequest,
		CodeConflict:          http.StatusBadRequest,
		CodeEmptyCart:         http.StatusBadRequest,
		CodeInsufficientStock: http.StatusBadRequest,
		CodeGateway:           http.StatusBadGateway,
		CodeInternal:          http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), code)
	}
}
