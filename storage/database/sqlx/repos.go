// Package sqlxrepos implements the domain repositories on Postgres.
// Each repository holds a default executor (the *sqlx.DB) that services can
// override per call with a transaction.
package sqlxrepos

import (
	"github.com/lib/pq"

	"github.com/trezcool/darasa/core"
)

const pqUniqueViolation = "23505"

func getExec(dflt core.DBExecutor, svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return dflt
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == pqUniqueViolation
}
