package dto

import (
	"strings"
	"testing"

	"github.com/spec-kit/service-desk/internal/domain"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

func fieldsOf(t *testing.T, err error) map[string]any {
	t.Helper()
	if err == nil {
		return nil
	}
	de := apperrors.ToDomainError(err)
	if de.Code != apperrors.CodeValidation {
		t.Fatalf("code = %s, want validation", de.Code)
	}
	return de.Details
}

func strp(s string) *string { return &s }

func TestCreateRequestValidation(t *testing.T) {
	cases := []struct {
		name  string
		req   CreateRequestRequest
		field string
	}{
		{"ok", CreateRequestRequest{Title: "Printer broken"}, ""},
		{"title padded to minimum", CreateRequestRequest{Title: "  ab  "}, "title"},
		{"title multibyte", CreateRequestRequest{Title: "äöü"}, ""},
		{"title too long", CreateRequestRequest{Title: strings.Repeat("x", 256)}, "title"},
		{"description too long", CreateRequestRequest{Title: "Chair", Description: strp(strings.Repeat("d", 2001))}, "description"},
		{"assignee zero", CreateRequestRequest{Title: "Chair", AssigneeID: new(int64)}, "assignee_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.Normalize()
			fields := fieldsOf(t, tc.req.Validate())
			if tc.field == "" && fields != nil {
				t.Fatalf("unexpected errors %v", fields)
			}
			if tc.field != "" {
				if _, ok := fields[tc.field]; !ok {
					t.Fatalf("errors %v lack %s", fields, tc.field)
				}
			}
		})
	}
}

func TestBlankDescriptionBecomesNil(t *testing.T) {
	req := CreateRequestRequest{Title: "Chair", Description: strp("   ")}
	req.Normalize()
	if req.Description != nil {
		t.Errorf("description = %q", *req.Description)
	}
}

func TestUpdateRequestValidation(t *testing.T) {
	id := int64(7)
	change, err := UpdateRequestRequest{Status: strp("DONE"), AssigneeID: &id, Comment: strp("  fixed  ")}.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if *change.NewStatus != domain.StatusDone || *change.NewAssigneeID != 7 || *change.Comment != "fixed" {
		t.Errorf("change = %+v", change)
	}

	change, err = UpdateRequestRequest{Comment: strp("   ")}.Validate()
	if err != nil || change.Comment != nil || !change.IsEmpty() {
		t.Errorf("blank comment = %+v, %v", change, err)
	}

	fields := fieldsOf(t, func() error {
		_, err := UpdateRequestRequest{Status: strp("PAUSED"), Comment: strp(strings.Repeat("c", 501))}.Validate()
		return err
	}())
	if _, ok := fields["status"]; !ok {
		t.Errorf("missing status error: %v", fields)
	}
	if _, ok := fields["comment"]; !ok {
		t.Errorf("missing comment error: %v", fields)
	}
}

func TestCreateUserValidation(t *testing.T) {
	bogus := domain.Role("root")
	cases := []struct {
		name  string
		req   CreateUserRequest
		field string
		msg   string
	}{
		{"ok", CreateUserRequest{FullName: "Ann Lee", Email: " Ann@Example.com "}, "", ""},
		{"short name", CreateUserRequest{FullName: " A ", Email: "a@example.com"}, "full_name", "full_name_too_short"},
		{"long name", CreateUserRequest{FullName: strings.Repeat("n", 101), Email: "a@example.com"}, "full_name", "full_name_too_long"},
		{"display name form", CreateUserRequest{FullName: "Ann Lee", Email: "Ann <ann@example.com>"}, "email", ""},
		{"no at sign", CreateUserRequest{FullName: "Ann Lee", Email: "ann.example.com"}, "email", ""},
		{"bad role", CreateUserRequest{FullName: "Ann Lee", Email: "ann@example.com", Role: &bogus}, "role", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.Normalize()
			fields := fieldsOf(t, tc.req.Validate())
			if tc.field == "" {
				if fields != nil {
					t.Fatalf("unexpected errors %v", fields)
				}
				return
			}
			got, ok := fields[tc.field]
			if !ok {
				t.Fatalf("errors %v lack %s", fields, tc.field)
			}
			if tc.msg != "" && got != tc.msg {
				t.Errorf("%s = %v, want %s", tc.field, got, tc.msg)
			}
		})
	}
}

func TestSetActiveRequiresFlag(t *testing.T) {
	if err := (SetActiveRequest{}).Validate(); err == nil {
		t.Error("missing is_active accepted")
	}
	if err := (UpdateRoleRequest{Role: domain.RoleAgent}).Validate(); err != nil {
		t.Errorf("UpdateRole: %v", err)
	}
}
