package controller

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	apperrors "github.com/ikkim/dealer-backend/internal/errors"
	"github.com/ikkim/dealer-backend/internal/middleware"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// parseIDParam reads a positive numeric path parameter. It writes the 400
// response itself and reports false on failure.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid ID parameter", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// respondError logs err at a level matching its kind and writes the mapped
// JSON error.
func respondError(c *gin.Context, log *logger.Logger, err error, msg string, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	if apperrors.Is(err, apperrors.ErrValidation) ||
		apperrors.Is(err, apperrors.ErrNotFound) ||
		apperrors.Is(err, apperrors.ErrConflict) {
		fields["error"] = err.Error()
		log.Warn(msg, fields)
	} else {
		log.Error(msg, err, fields)
	}
	apperrors.Respond(c, err, msg)
}

// queryParser accumulates query string problems into one ValidationError.
type queryParser struct {
	c    *gin.Context
	verr *apperrors.ValidationError
}

func newQueryParser(c *gin.Context) *queryParser {
	return &queryParser{c: c, verr: apperrors.NewValidationError()}
}

func (p *queryParser) int(name string) int {
	raw := p.c.Query(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.verr.Add(name, "must be an integer")
	}
	return n
}

func (p *queryParser) uint(name string) uint {
	raw := p.c.Query(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		p.verr.Add(name, "must be a positive integer")
	}
	return uint(n)
}

func (p *queryParser) decimal(name string) *decimal.Decimal {
	raw := p.c.Query(name)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.verr.Add(name, "must be a decimal number")
		return nil
	}
	return &d
}

func (p *queryParser) bool(name string) *bool {
	raw := p.c.Query(name)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.verr.Add(name, "must be true or false")
		return nil
	}
	return &b
}

func (p *queryParser) date(name string) *time.Time {
	raw := p.c.Query(name)
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		p.verr.Add(name, "must be a date in YYYY-MM-DD format")
		return nil
	}
	return &t
}

func (p *queryParser) requiredDate(name string) time.Time {
	if p.c.Query(name) == "" {
		p.verr.Add(name, "is required")
		return time.Time{}
	}
	if t := p.date(name); t != nil {
		return *t
	}
	return time.Time{}
}

func (p *queryParser) page() repository.Page {
	return repository.Page{
		Page:     p.int("page"),
		PageSize: p.int("page_size"),
	}
}

// done writes the collected violations and reports whether parsing succeeded.
func (p *queryParser) done() bool {
	if !p.verr.HasViolations() {
		return true
	}
	middleware.GetLoggerFromContext(p.c).Warn("Invalid query parameters", map[string]interface{}{
		"fields": p.verr.Fields(),
	})
	apperrors.RespondWithValidationError(p.c, p.verr)
	return false
}

// bindJSON decodes the request body, answering 400 on malformed input.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "request body is invalid: "+err.Error())
		return false
	}
	return true
}

// calendarDate is a JSON date in YYYY-MM-DD form. RFC3339 timestamps are
// accepted too and cut to their UTC day.
type calendarDate time.Time

func (d *calendarDate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string in YYYY-MM-DD format, got %s", data)
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, raw)
		if tsErr != nil {
			return fmt.Errorf("date %q must be in YYYY-MM-DD format", raw)
		}
		y, m, day := ts.UTC().Date()
		t = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}
	*d = calendarDate(t)
	return nil
}

func (d *calendarDate) timeOrZero() time.Time {
	if d == nil {
		return time.Time{}
	}
	return time.Time(*d)
}

type pageResponse struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func newPageResponse(total int64, page repository.Page) pageResponse {
	n := page.Normalized()
	return pageResponse{Total: total, Page: n.Page, PageSize: n.PageSize}
}
