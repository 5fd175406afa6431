package database

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

func asMySQL(err error, target **mysql.MySQLError) bool {
	if err == nil {
		return false
	}
	return errors.As(err, target)
}
