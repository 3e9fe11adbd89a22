package db

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Drivers suportados (nomes registrados em database/sql)
const (
	DriverPostgres = "postgres" // lib/pq
	DriverPgx      = "pgx"      // jackc/pgx stdlib
	DriverSQLite   = "sqlite3"  // mattn/go-sqlite3, uso local
)

// Dialect indica as diferenças de SQL entre os drivers
type Dialect struct {
	Driver string
}

// Postgres informa se o banco é Postgres (lib/pq ou pgx)
func (d Dialect) Postgres() bool {
	return d.Driver == DriverPostgres || d.Driver == DriverPgx
}

// AdvisoryLocks informa se pg_advisory_xact_lock está disponível
func (d Dialect) AdvisoryLocks() bool { return d.Postgres() }

func Connect(driver, dsn string) (*sql.DB, Dialect, error) {
	switch driver {
	case DriverPostgres, DriverPgx, DriverSQLite:
	default:
		return nil, Dialect{}, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("open %s: %w", driver, err)
	}

	// sqlite serializa escritas; uma conexão evita SQLITE_BUSY entre transações
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, Dialect{}, fmt.Errorf("ping %s: %w", driver, err)
	}

	return db, Dialect{Driver: driver}, nil
}
