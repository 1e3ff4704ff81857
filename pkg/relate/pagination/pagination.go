// Package pagination implements the shared page/limit query contract
// for list endpoints: page defaults to 1 and must be positive, limit
// defaults to 10 and is clamped to [1,100].
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params are the sanitized paging inputs for a list query
type Params struct {
	Page  int
	Limit int
}

// Parse reads page/limit from the query string, applying defaults and
// clamping out-of-range values instead of rejecting them.
func Parse(c *gin.Context) Params {
	p := Params{Page: DefaultPage, Limit: DefaultLimit}

	if raw := c.Query("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 1 {
			p.Page = parsed
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			switch {
			case parsed < 1:
				p.Limit = 1
			case parsed > MaxLimit:
				p.Limit = MaxLimit
			default:
				p.Limit = parsed
			}
		}
	}

	return p
}

// Offset converts the page number to a row offset
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta describes the result window of a paginated response
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Meta builds the response metadata for a total row count.
// totalPages is ceil(total/limit).
func (p Params) Meta(total int64) Meta {
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Meta{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: totalPages}
}

// Envelope is the list response shape: {data, pagination}
type Envelope struct {
	Data       interface{} `json:"data"`
	Pagination Meta        `json:"pagination"`
}
