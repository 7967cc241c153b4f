package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Params carries the list parameters common to all admin list endpoints.
type Params struct {
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
	Search  string            `json:"search"`
	Filters map[string]string `json:"filters"`
	Sort    string            `json:"sort"`
	Order   string            `json:"order"`
}

// Options declares which fields a given endpoint exposes for filtering,
// searching and sorting. Keys are the public parameter names, values the
// database column they map to.
type Options struct {
	FilterFields map[string]string
	SearchFields []string
	SortFields   map[string]string
}

// Pagination is the metadata block returned alongside list payloads.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Parse extracts list parameters from the request query string.
// Filters use the filters[field]=value form.
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if strings.HasPrefix(key, "filters[") && strings.HasSuffix(key, "]") {
			field := key[8 : len(key)-1]
			if len(values) > 0 && values[0] != "" {
				filters[field] = values[0]
			}
		}
	}

	order := c.DefaultQuery("order", "desc")
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	return Params{
		Page:    page,
		Limit:   limit,
		Search:  c.Query("search"),
		Filters: filters,
		Sort:    c.Query("sort"),
		Order:   order,
	}
}

// Apply adds the filter, search and sort clauses allowed by opts to db.
// Pagination is applied separately so callers can Count first.
func (p Params) Apply(db *gorm.DB, opts Options) *gorm.DB {
	for field, value := range p.Filters {
		if column, ok := opts.FilterFields[field]; ok && value != "" {
			db = db.Where(fmt.Sprintf("%s = ?", column), value)
		}
	}

	if p.Search != "" && len(opts.SearchFields) > 0 {
		conditions := make([]string, len(opts.SearchFields))
		args := make([]interface{}, len(opts.SearchFields))
		for i, column := range opts.SearchFields {
			conditions[i] = fmt.Sprintf("%s ILIKE ?", column)
			args[i] = "%" + p.Search + "%"
		}
		db = db.Where(strings.Join(conditions, " OR "), args...)
	}

	if column, ok := opts.SortFields[p.Sort]; ok {
		db = db.Order(fmt.Sprintf("%s %s", column, strings.ToUpper(p.Order)))
	} else {
		db = db.Order("created_at DESC")
	}

	return db
}

// Paginate applies the offset/limit window for the current page.
func (p Params) Paginate(db *gorm.DB) *gorm.DB {
	return db.Offset((p.Page - 1) * p.Limit).Limit(p.Limit)
}

// BuildPagination computes the metadata block for a counted result set.
func (p Params) BuildPagination(total int64) Pagination {
	totalPages := (total + int64(p.Limit) - 1) / int64(p.Limit)
	return Pagination{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < int(totalPages),
		HasPrev:    p.Page > 1,
	}
}
