package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Guardrail("x", nil), http.StatusUnprocessableEntity},
		{Persistence("x", errors.New("db down")), http.StatusServiceUnavailable},
		{Internal("x"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("kind %d: expected status %d, got %d", tc.err.Kind, tc.want, got)
		}
	}
}

func TestGetKindFollowsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("submit: %w", Persistence("save quotation", errors.New("conn reset")))

	if !Is(err, KindPersistence) {
		t.Fatalf("expected wrapped persistence error to be detected, got kind %d", GetKind(err))
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatal("expected plain error to have unknown kind")
	}
}

func TestOnlyPersistenceIsRetryable(t *testing.T) {
	if !Persistence("x", nil).Retryable() {
		t.Fatal("expected persistence error to be retryable")
	}
	if Validation("x").Retryable() {
		t.Fatal("expected validation error not to be retryable")
	}
}
