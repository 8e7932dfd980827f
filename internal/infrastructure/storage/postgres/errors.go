package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"stockledger/internal/core/apperror"
)

// PostgreSQL SQLSTATE codes the store translates.
const (
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// uniqueFields maps unique constraint names to the entity and field reported
// in a DUPLICATE_ENTRY error.
var uniqueFields = map[string][2]string{
	"inventories_tenant_code_key":  {"inventory", "code"},
	"inventories_tenant_name_key":  {"inventory", "name"},
	"purchases_tenant_invoice_key": {"purchase", "invoice"},
	"sales_tenant_invoice_key":     {"sale", "invoice"},
	"tenants_pkey":                 {"tenant", "id"},
}

// mapError converts driver errors into AppErrors. value is reported for
// duplicates; other errors pass through unchanged.
func mapError(err error, entity string, value ...string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		ent, field := entity, pgErr.ConstraintName
		if f, ok := uniqueFields[pgErr.ConstraintName]; ok {
			ent, field = f[0], f[1]
		}
		v := ""
		if len(value) > 0 {
			v = value[0]
		}
		return apperror.NewDuplicate(ent, field, v).WithCause(err)
	case pgSerializationFailure, pgDeadlockDetected:
		return apperror.NewConcurrentModification(entity).WithCause(err)
	case pgCheckViolation:
		// stock >= 0 is enforced by the engine before it writes; reaching the
		// constraint means the projection and the ledger disagree.
		return apperror.NewConsistency(entity + " violates " + pgErr.ConstraintName).WithCause(err)
	}
	return err
}

// withValue records the offending value on a DUPLICATE_ENTRY error.
func withValue(err error, value string) error {
	if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeDuplicate {
		appErr.WithDetail("value", value)
	}
	return err
}
