package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound - запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrConstraint - нарушение ограничения целостности (SQLSTATE 23xxx).
	ErrConstraint = errors.New("integrity constraint violation")
	// ErrDataInvalid - ошибка данных (SQLSTATE 22xxx), например слишком длинная строка.
	ErrDataInvalid = errors.New("invalid data")
)

// classify приводит ошибки драйвера к сигнальным ошибкам пакета.
// classify maps driver errors onto the package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "23":
			return fmt.Errorf("%w: %w", ErrConstraint, err)
		case "22":
			return fmt.Errorf("%w: %w", ErrDataInvalid, err)
		}
	}
	return err
}

// IsPersistenceError сообщает, вызвана ли ошибка данными запроса, а не отказом базы.
// IsPersistenceError reports whether err was caused by the submitted data.
func IsPersistenceError(err error) bool {
	return errors.Is(err, ErrConstraint) || errors.Is(err, ErrDataInvalid)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
