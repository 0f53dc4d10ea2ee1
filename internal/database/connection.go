package database

import "context"

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// existsQuery runs a SELECT EXISTS(...) query and returns its boolean result
func (db *DB) existsQuery(ctx context.Context, query string, args ...any) (bool, error) {
	var exists bool
	if err := db.queryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
