package persistence

import (
	"strings"

	"github.com/erp/warehouse/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// DocumentSortFields contains allowed sort fields for documents
var DocumentSortFields = map[string]bool{
	"created_at": true,
	"doc_date":   true,
	"number":     true,
	"total":      true,
}

// CashRequestSortFields contains allowed sort fields for cash approval requests
var CashRequestSortFields = map[string]bool{
	"created_at": true,
	"amount":     true,
}

// applyPaging adds ORDER BY, LIMIT and OFFSET to query
func applyPaging(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField, defaultOrder string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := defaultOrder
	if filter.OrderDir != "" {
		dir = ValidateSortOrder(filter.OrderDir)
	}
	query = query.Order(field + " " + dir)
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}
	return query
}
