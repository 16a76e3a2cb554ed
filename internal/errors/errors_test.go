package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	if KindOf(NotFound("app")) != KindNotFound {
		t.Fatal("expected KindNotFound")
	}
	if KindOf(fmt.Errorf("plain")) != KindUnknown {
		t.Fatal("expected KindUnknown for foreign error")
	}

	wrapped := fmt.Errorf("listing catalog: %w", Unavailable("select apps", stderrors.New("timeout")))
	if KindOf(wrapped) != KindUnavailable {
		t.Fatal("expected kind to survive wrapping")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("app"), http.StatusNotFound},
		{Validation("rating out of range"), http.StatusBadRequest},
		{Unauthorized("missing session"), http.StatusUnauthorized},
		{Forbidden("admins only"), http.StatusForbidden},
		{SetupIncomplete(nil), http.StatusServiceUnavailable},
		{Unavailable("insert", stderrors.New("boom")), http.StatusBadGateway},
		{stderrors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestWithDetails(t *testing.T) {
	err := InvalidToken(stderrors.New("expired")).WithDetails("alg", "HS256")
	if err.Details()["alg"] != "HS256" {
		t.Fatal("expected detail to be recorded")
	}
	if !stderrors.Is(err, err.Unwrap()) && err.Unwrap() == nil {
		t.Fatal("expected cause to unwrap")
	}
}
