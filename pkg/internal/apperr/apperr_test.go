package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/nidrive/nidrive/pkg/internal/apperr"
)

func TestErrorMessage(t *testing.T) {
	err := apperr.New(apperr.CodeNotFound, "file not found")
	if err.Error() != "not_found: file not found" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	wrapped := apperr.Wrap(apperr.CodeInternal, "query failed", errors.New("disk io"))
	if wrapped.Error() != "internal: query failed: disk io" {
		t.Errorf("unexpected wrapped message: %s", wrapped.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := apperr.Wrap(apperr.CodeStorageUnavailable, "s3 down", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestIsByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", apperr.New(apperr.CodeQuotaExceeded, "no space"))

	if !errors.Is(err, apperr.New(apperr.CodeQuotaExceeded, "")) {
		t.Error("expected code match through wrapping")
	}

	if errors.Is(err, apperr.New(apperr.CodeNotFound, "")) {
		t.Error("did not expect code match for different code")
	}
}

func TestCodeOf(t *testing.T) {
	if got := apperr.CodeOf(apperr.New(apperr.CodeForbidden, "nope")); got != apperr.CodeForbidden {
		t.Errorf("expected forbidden, got %s", got)
	}

	if got := apperr.CodeOf(errors.New("plain")); got != apperr.CodeInternal {
		t.Errorf("expected internal for plain error, got %s", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		code apperr.Code
		want int
	}{
		{apperr.CodeInvalidArgument, http.StatusBadRequest},
		{apperr.CodeSizeMismatch, http.StatusBadRequest},
		{apperr.CodeUnauthorized, http.StatusUnauthorized},
		{apperr.CodeInvalidAssertion, http.StatusUnauthorized},
		{apperr.CodeExpiredAssertion, http.StatusUnauthorized},
		{apperr.CodeForbidden, http.StatusForbidden},
		{apperr.CodeNotFound, http.StatusNotFound},
		{apperr.CodeFileTooLarge, http.StatusRequestEntityTooLarge},
		{apperr.CodeQuotaExceeded, http.StatusInsufficientStorage},
		{apperr.CodeCorruptState, http.StatusConflict},
		{apperr.CodeStorageUnavailable, http.StatusServiceUnavailable},
		{apperr.CodeInternal, http.StatusInternalServerError},
	}

	for _, c := range cases {
		if got := apperr.HTTPStatus(apperr.New(c.code, "x")); got != c.want {
			t.Errorf("code %s: expected %d, got %d", c.code, c.want, got)
		}
	}

	if got := apperr.HTTPStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("plain error: expected 500, got %d", got)
	}
}
