package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/taller-stock/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isCheckViolation 23514: un CHECK de la tabla rechazó la fila.
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// mapError traduce errores de pgx a la taxonomía de dominio; el resto se envuelve con op.
func mapError(err error, op, entity, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return domain.NotFound(entity, id)
	case isUniqueViolation(err):
		var pgErr *pgconn.PgError
		errors.As(err, &pgErr)
		return domain.Duplicate(entity, pgErr.ConstraintName)
	case isCheckViolation(err):
		var pgErr *pgconn.PgError
		errors.As(err, &pgErr)
		return domain.Conflict(entity, id, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// execOne ejecuta un UPDATE/DELETE que debe afectar exactamente una fila.
func execOne(ctx context.Context, q Querier, op, entity, id, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err, op, entity, id)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(entity, id)
	}
	return nil
}

// rowScanner lo cumplen pgx.Row y pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// collect recorre rows aplicando scan; cierra rows siempre.
func collect[T any](rows pgx.Rows, op string, scan func(rowScanner) (*T, error)) ([]*T, error) {
	defer rows.Close()
	out := []*T{}
	for rows.Next() {
		x, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, x)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// limitOffset devuelve los argumentos de paginación; limit 0 = sin límite (NULL en LIMIT).
func limitOffset(limit, offset int) (any, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return nil, offset
	}
	return limit, offset
}
