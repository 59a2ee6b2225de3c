// Package repository holds the SQL persistence layer.  Repositories return
// apperr-kinded errors for the outcomes handlers must distinguish
// (NotFound, Conflict); everything else bubbles up unclassified and is
// treated as internal by the boundary.
package repository

import "strings"

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).  The driver does not expose a typed error for it.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
