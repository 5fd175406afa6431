package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = pass
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, port)
	cfg.DBName = name
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := Ping(context.Background(), db, 5*time.Second); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Ping checks connectivity with a bounded wait.
func Ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.PingContext(ctx)
}

// IsNoSuchTable reports whether err is MySQL error 1146 (table doesn't exist).
func IsNoSuchTable(err error) bool {
	var me *mysql.MySQLError
	return asMySQL(err, &me) && me.Number == 1146
}

// IsNoSuchColumn reports whether err is MySQL error 1054 (unknown column).
func IsNoSuchColumn(err error) bool {
	var me *mysql.MySQLError
	return asMySQL(err, &me) && me.Number == 1054
}

// IsDuplicate reports whether err is MySQL error 1062 (duplicate entry).
func IsDuplicate(err error) bool {
	var me *mysql.MySQLError
	return asMySQL(err, &me) && me.Number == 1062
}
