package db

import (
	"database/sql"
	"fmt"

	"crm_backend/platform/apperr"
)

// RequireAffected returns a NotFound error with notFoundMsg when res touched no rows.
func RequireAffected(res sql.Result, notFoundMsg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(notFoundMsg)
	}
	return nil
}
