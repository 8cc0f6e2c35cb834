package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable codes shared by several layers.
const (
	CodeValidation         = "validation_error"
	CodeUnavailable        = "service_unavailable"
	CodeInternal           = "unknown_error"
	CodeRequestNotFound    = "request_not_found"
	CodeUserNotFound       = "user_not_found"
	CodeAssigneeNotFound   = "assignee_not_found"
	CodeEmailAlreadyExists = "email_already_exists"
)

var messages = map[string]string{
	"missing_api_key":                         "API key required in the X-API-Key header.",
	"invalid_api_key":                         "Invalid or unknown API key.",
	"invalid_token":                           "Invalid or expired bearer token.",
	"user_inactive":                           "User is deactivated.",
	"admin_only":                              "This endpoint is available to administrators only.",
	"agent_or_admin_only":                     "This endpoint is available to agents and administrators only.",
	"invalid_bootstrap_key":                   "Bootstrap key is missing or does not match.",
	"admin_bootstrap_key_not_configured":      "Admin bootstrap key is not configured.",
	CodeEmailAlreadyExists:                    "A user with this email already exists.",
	CodeUserNotFound:                          "User not found.",
	CodeRequestNotFound:                       "Request not found.",
	CodeAssigneeNotFound:                      "The requested assignee does not exist.",
	"invalid_status_transition":               "Status transition is not allowed.",
	"status_is_terminal":                      "Request status is final.",
	"status_is_already_set":                   "Request already has this status.",
	"in_progress_requires_assignee":           "IN_PROGRESS requires an assignee.",
	"forbidden_to_view_request":               "You cannot view this request.",
	"forbidden_to_view_history":               "You cannot view the history of this request.",
	"forbidden_for_employee":                  "Employees cannot list all requests.",
	"agent_cannot_modify_terminal":            "Agents cannot modify finished requests.",
	"agent_cannot_assign_others":              "Agents can only assign requests to themselves.",
	"agent_cannot_modify_foreign_request":     "The request is assigned to someone else.",
	"employee_cannot_modify_foreign_request":  "Employees can only modify their own requests.",
	"employee_cannot_change_assignee":         "Employees cannot change the assignee.",
	"employee_cannot_set_status":              "Employees can only cancel requests.",
	"employee_cannot_cancel_after_assignment": "Request can no longer be canceled.",
	"employee_cannot_assign_on_create":        "Employees cannot assign a request on creation.",
	"unknown_role":                            "Unknown role.",
	CodeValidation:                            "Request payload is invalid.",
	CodeUnavailable:                           "Storage is temporarily unavailable.",
	CodeInternal:                              "Unexpected internal error.",
}

// Message returns the human readable text for a code.
func Message(code string) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "An error occurred."
}

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	if message == "" {
		message = Message(code)
	}
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusUnprocessableEntity, details)
}

func NewNotFound(code string, details map[string]any) error {
	return NewDomainError(code, "", http.StatusNotFound, details)
}

func NewBadRequest(code string, details map[string]any) error {
	return NewDomainError(code, "", http.StatusBadRequest, details)
}

func NewUnauthorized(code string) error {
	return NewDomainError(code, "", http.StatusUnauthorized, nil)
}

func NewForbidden(code string) error {
	return NewDomainError(code, "", http.StatusForbidden, nil)
}

func NewConflict(code string, details map[string]any) error {
	return NewDomainError(code, "", http.StatusConflict, details)
}

func NewUnavailable(err error) error {
	return &DomainError{
		Code:       CodeUnavailable,
		Message:    Message(CodeUnavailable),
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    Message(CodeInternal),
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return NewInternalError(err).(*DomainError)
}

// CodeOf returns the stable code carried by err, or "" when err is nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Code
}
