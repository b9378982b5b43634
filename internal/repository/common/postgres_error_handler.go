package common

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
)

// HandlePostgreSQLError converts PostgreSQL-specific errors to appropriate AppError codes
func HandlePostgreSQLError(err error, operation string) *apperrors.AppError {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.Wrap(err, apperrors.CodeNotFound, operation+": not found")
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		// driver, network or context failure: the datastore could not be reached
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return apperrors.Wrap(err, apperrors.CodePersistence, operation+": datastore call interrupted")
		}
		return apperrors.Wrap(err, apperrors.CodePersistence, operation)
	}

	switch pgErr.Code {
	case "23505": // UNIQUE_VIOLATION
		return handleUniqueViolation(pgErr, operation)

	case "23503": // FOREIGN_KEY_VIOLATION
		return handleForeignKeyViolation(pgErr, operation)

	case "23502": // NOT_NULL_VIOLATION
		return apperrors.Wrap(err, apperrors.CodeInvalidArg, "required field is missing")

	case "23514": // CHECK_VIOLATION
		return apperrors.Wrap(err, apperrors.CodeInvalidArg, "data violates check constraint")

	case "42P01": // UNDEFINED_TABLE
		return apperrors.Wrap(err, apperrors.CodeInternal, "database schema error: table not found (run 'ytshelf migrate up')")

	case "42703": // UNDEFINED_COLUMN
		return apperrors.Wrap(err, apperrors.CodeInternal, "database schema error: column not found")

	case "08000", "08003", "08006", "57P01": // CONNECTION_EXCEPTION variants, ADMIN_SHUTDOWN
		return apperrors.Wrap(err, apperrors.CodePersistence, "database connection error")

	case "53300": // TOO_MANY_CONNECTIONS
		return apperrors.Wrap(err, apperrors.CodePersistence, "database connection limit reached")

	default:
		message := operation + ": database error (PostgreSQL code: " + pgErr.Code + ")"
		return apperrors.Wrap(err, apperrors.CodeInternal, message)
	}
}

// handleUniqueViolation provides specific error messages for different unique constraints
func handleUniqueViolation(pgErr *pgconn.PgError, operation string) *apperrors.AppError {
	constraintName := pgErr.ConstraintName

	switch {
	case strings.HasPrefix(constraintName, "user_songs"):
		return apperrors.Wrap(pgErr, apperrors.CodeConflict, "song is already in the library")
	case strings.HasPrefix(constraintName, "user_downloads"):
		return apperrors.Wrap(pgErr, apperrors.CodeConflict, "song is already downloaded")
	case strings.HasPrefix(constraintName, "songs"):
		return apperrors.Wrap(pgErr, apperrors.CodeConflict, "song with this external ID already exists")
	default:
		return apperrors.Wrap(pgErr, apperrors.CodeConflict, "resource already exists")
	}
}

// handleForeignKeyViolation provides specific error messages for foreign key constraints
func handleForeignKeyViolation(pgErr *pgconn.PgError, operation string) *apperrors.AppError {
	if strings.Contains(pgErr.ConstraintName, "song_id") {
		return apperrors.Wrap(pgErr, apperrors.CodeDependency, "referenced song does not exist")
	}
	return apperrors.Wrap(pgErr, apperrors.CodeDependency, "referenced resource does not exist")
}
