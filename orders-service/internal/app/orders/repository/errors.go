package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Коды PostgreSQL, после которых операцию можно повторить
var retryablePgCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
	"53300": {}, // too_many_connections
}

// translateError помечает временные ошибки хранилища как ErrStoreBusy.
// Остальные ошибки (в том числе доменные из колбэка транзакции) возвращаются как есть.
func translateError(err error) error {
	if err == nil || errors.Is(err, ErrStoreBusy) {
		return err
	}
	if isBusy(err) {
		return fmt.Errorf("%w: %v", ErrStoreBusy, err)
	}
	return err
}

func isBusy(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := retryablePgCodes[pgErr.Code]
		return ok
	}

	// SQLite (тесты и локальный запуск)
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "sqlite_busy")
}
