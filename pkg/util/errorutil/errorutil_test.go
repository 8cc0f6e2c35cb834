package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("", nil), CodeValidation, http.StatusUnprocessableEntity},
		{NewNotFound(CodeRequestNotFound, nil), CodeRequestNotFound, http.StatusNotFound},
		{NewBadRequest("status_is_terminal", nil), "status_is_terminal", http.StatusBadRequest},
		{NewUnauthorized("invalid_api_key"), "invalid_api_key", http.StatusUnauthorized},
		{NewForbidden("admin_only"), "admin_only", http.StatusForbidden},
		{NewConflict(CodeEmailAlreadyExists, nil), CodeEmailAlreadyExists, http.StatusConflict},
		{NewUnavailable(errors.New("dial tcp")), CodeUnavailable, http.StatusServiceUnavailable},
		{NewInternalError(nil), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		de := ToDomainError(tc.err)
		if de.Code != tc.code || de.HTTPStatus != tc.status {
			t.Errorf("%v: got %s/%d, want %s/%d", tc.err, de.Code, de.HTTPStatus, tc.code, tc.status)
		}
		if de.Message == "" || de.Message == Message("no_such_code") {
			t.Errorf("%s: missing catalogue message", tc.code)
		}
	}
}

func TestToDomainErrorUnwraps(t *testing.T) {
	inner := NewForbidden("agent_cannot_assign_others")
	wrapped := fmt.Errorf("update: %w", inner)
	if CodeOf(wrapped) != "agent_cannot_assign_others" {
		t.Errorf("CodeOf(wrapped) = %q", CodeOf(wrapped))
	}

	plain := errors.New("boom")
	de := ToDomainError(plain)
	if de.Code != CodeInternal || !errors.Is(de, plain) {
		t.Errorf("plain error = %+v", de)
	}
	if ToDomainError(nil) != nil || CodeOf(nil) != "" {
		t.Error("nil error should stay nil")
	}
}

func TestExplicitMessageWins(t *testing.T) {
	err := NewValidationError("Request body is not valid JSON.", map[string]any{"title": "required"})
	de := ToDomainError(err)
	if de.Message != "Request body is not valid JSON." || de.Details["title"] != "required" {
		t.Errorf("de = %+v", de)
	}
}
