package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/boutique/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// notFound maps gorm.ErrRecordNotFound to shared.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// lockRows adds FOR UPDATE OF table on postgres. SQLite serializes writers
// and has no row locks.
func lockRows(db *gorm.DB, table string) *gorm.DB {
	if db.Dialector.Name() != "postgres" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Table: clause.Table{Name: table}})
}

// sortColumns whitelists the columns a list may be ordered by besides id,
// created_at and updated_at
type sortColumns map[string]bool

var (
	productSort = sortColumns{"name": true, "slug": true, "category": true, "gender": true}
	orderSort   = sortColumns{"number": true, "status": true, "total": true, "paid_at": true}
	paymentSort = sortColumns{"amount": true, "status": true, "method": true, "completed_at": true}
)

// orderBy resolves the requested sort. Unknown columns fall back to
// created_at; anything but "asc" sorts descending.
func (s sortColumns) orderBy(table string, filter shared.Filter) clause.OrderByColumn {
	col := strings.TrimSpace(filter.OrderBy)
	switch col {
	case "id", "created_at", "updated_at":
	default:
		if !s[col] {
			col = "created_at"
		}
	}
	return clause.OrderByColumn{
		Column: clause.Column{Table: table, Name: col},
		Desc:   !strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc"),
	}
}

// paginate applies a whitelisted ORDER BY plus LIMIT/OFFSET
func paginate(query *gorm.DB, table string, filter shared.Filter, cols sortColumns) *gorm.DB {
	return query.
		Order(cols.orderBy(table, filter)).
		Limit(filter.Limit()).
		Offset(filter.Offset())
}

// filterString returns a non-empty string filter value
func filterString(filter shared.Filter, key string) (string, bool) {
	v, ok := filter.Filters[key]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	return s, s != ""
}

// filterBool accepts bool values and "true"/"false" strings
func filterBool(filter shared.Filter, key string) (bool, bool) {
	switch v := filter.Filters[key].(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(v) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	}
	return false, false
}

// likePattern builds a case-insensitive LIKE pattern
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(search))) + "%"
}
