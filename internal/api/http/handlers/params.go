package handlers

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/domain"
	"github.com/spec-kit/service-desk/internal/repository"
	apperrors "github.com/spec-kit/service-desk/pkg/util/errorutil"
)

const userAgentMaxLen = 255

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized(auth.CodeMissingAPIKey)
	}
	return p, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("Request body is not valid JSON.", nil)
	}
	return nil
}

func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.NewValidationError("", map[string]any{name: "must be a positive integer"})
	}
	return id, nil
}

// page reads limit and offset. Out of range values are rejected rather
// than clamped.
func page(c *fiber.Ctx) (limit, offset int, err error) {
	limit = repository.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > repository.MaxListLimit {
			return 0, 0, apperrors.NewValidationError("", map[string]any{"limit": "must be between 1 and 100"})
		}
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, apperrors.NewValidationError("", map[string]any{"offset": "must be zero or positive"})
		}
	}
	return limit, offset, nil
}

func listFilter(c *fiber.Ctx) (repository.ServiceRequestFilter, error) {
	limit, offset, err := page(c)
	if err != nil {
		return repository.ServiceRequestFilter{}, err
	}
	filter := repository.ServiceRequestFilter{Limit: limit, Offset: offset}
	details := map[string]any{}

	if raw := c.Query("status"); raw != "" {
		status := domain.RequestStatus(strings.ToUpper(raw))
		if status.Valid() {
			filter.Status = &status
		} else {
			details["status"] = "must be one of NEW, IN_PROGRESS, DONE, CANCELED"
		}
	}
	for key, dst := range map[string]**int64{"created_by_id": &filter.CreatedByID, "assigned_to_id": &filter.AssignedToID} {
		if raw := c.Query(key); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id < 1 {
				details[key] = "must be a positive integer"
				continue
			}
			*dst = &id
		}
	}
	for key, dst := range map[string]**time.Time{"date_from": &filter.DateFrom, "date_to": &filter.DateTo} {
		if raw := c.Query(key); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				details[key] = "must be an RFC 3339 timestamp"
				continue
			}
			*dst = &ts
		}
	}

	if len(details) > 0 {
		return repository.ServiceRequestFilter{}, apperrors.NewValidationError("", details)
	}
	return filter, nil
}

func changeContext(c *fiber.Ctx) domain.ChangeContext {
	meta := domain.ChangeContext{Source: domain.SourceAPI}
	if ip := c.IP(); ip != "" {
		meta.ClientIP = &ip
	}
	// header values alias the request buffer; audit rows outlive it
	if ua := utils.CopyString(c.Get(fiber.HeaderUserAgent)); ua != "" {
		if utf8.RuneCountInString(ua) > userAgentMaxLen {
			ua = string([]rune(ua)[:userAgentMaxLen])
		}
		meta.UserAgent = &ua
	}
	return meta
}
