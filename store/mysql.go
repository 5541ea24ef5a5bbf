package store

import (
	"database/sql"
	"log"
	"strings"

	"github.com/BurntSushi/migration"
	_ "github.com/go-sql-driver/mysql"
)

// MySQL implements a store kept in a MySQL table. Values are limited to 16 MB
// each by the MEDIUMBLOB column. The schema is created and upgraded on open.
type MySQL struct {
	db *sql.DB
}

var (
	_ Store  = &MySQL{}
	_ Lister = &MySQL{}
)

// List of migrations to perform. Add new ones to the end.
// DO NOT change the order of items already in this list.
var mysqlMigrations = []migration.Migrator{
	mysqlschema1,
}

// Adapt the schema versioning for MySQL

var mysqlVersioning = dbVersion{
	GetSQL:    `SELECT max(version) FROM migration_version`,
	SetSQL:    `INSERT INTO migration_version (version, applied) VALUES (?, now())`,
	CreateSQL: `CREATE TABLE migration_version (version INTEGER, applied datetime)`,
}

func mysqlschema1(tx migration.LimitedTx) error {
	const s = `CREATE TABLE IF NOT EXISTS blobs (
		k VARBINARY(512) PRIMARY KEY,
		v MEDIUMBLOB)`

	_, err := tx.Exec(s)
	return err
}

// NewMySQL connects to the MySQL database given by dial (in the form the
// go-sql-driver accepts, e.g. "user:pass@tcp(localhost:3306)/chonk") and
// returns a store kept in it, applying any pending schema migrations first.
func NewMySQL(dial string) (*MySQL, error) {
	db, err := migration.OpenWith(
		"mysql",
		dial,
		mysqlMigrations,
		mysqlVersioning.Get,
		mysqlVersioning.Set)
	if err != nil {
		log.Printf("Open Mysql: %s", err.Error())
		return nil, err
	}
	return &MySQL{db: db}, nil
}

// Get returns the value stored under the given key.
func (ms *MySQL) Get(key string) ([]byte, error) {
	const dbGet = `SELECT v FROM blobs WHERE k = ? LIMIT 1`

	var value []byte
	err := ms.db.QueryRow(dbGet, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotExist
	}
	return value, err
}

// Set saves value under the given key, replacing any previous value.
func (ms *MySQL) Set(key string, value []byte) error {
	const dbSet = `INSERT INTO blobs (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)`

	_, err := ms.db.Exec(dbSet, key, value)
	return err
}

// Delete the given key. It is not an error if the key does not exist.
func (ms *MySQL) Delete(key string) error {
	const dbDelete = `DELETE FROM blobs WHERE k = ?`

	_, err := ms.db.Exec(dbDelete, key)
	return err
}

// ListPrefix returns the keys having the given prefix, in sorted order.
func (ms *MySQL) ListPrefix(prefix string) ([]string, error) {
	const dbList = `SELECT k FROM blobs WHERE k LIKE ? ORDER BY k`

	rows, err := ms.db.Query(dbList, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		result = append(result, k)
	}
	return result, rows.Err()
}

// Close the underlying database handle.
func (ms *MySQL) Close() error {
	return ms.db.Close()
}

// escapeLike quotes the characters which are special in a LIKE pattern so
// the prefix is taken literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(
	`\`, `\\`,
	`%`, `\%`,
	`_`, `\_`,
)
