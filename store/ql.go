package store

import (
	"database/sql"
	"log"
	"strings"

	_ "github.com/cznic/ql/driver"
)

// This file implements a store kept in the QL embedded database. It is
// intended to be used only in development, where a real database server
// would be overkill.

// QL implements a store kept in a QL database file, or fully in memory.
type QL struct {
	db *sql.DB
}

var (
	_ Store  = &QL{}
	_ Lister = &QL{}
)

const qlInit = `
	CREATE TABLE IF NOT EXISTS blobs (
		k string,
		v blob
	);
	CREATE INDEX IF NOT EXISTS blobkey ON blobs (k);
`

// NewQL makes a QL backed store. filename is the name of the file to save
// the database to. The filename "memory" means to keep everything in memory.
func NewQL(filename string) *QL {
	var db *sql.DB
	var err error
	if filename == "memory" {
		db, err = sql.Open("ql-mem", "mem.db")
	} else {
		db, err = sql.Open("ql", filename)
	}
	if err == nil {
		_, err = performExec(db, qlInit)
	}
	if err != nil {
		log.Printf("Open QL: %s", err.Error())
		return nil
	}
	return &QL{db: db}
}

// Get returns the value stored under the given key.
func (qc *QL) Get(key string) ([]byte, error) {
	const dbGet = `SELECT v FROM blobs WHERE k == ?1 LIMIT 1`

	var value []byte
	err := qc.db.QueryRow(dbGet, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotExist
	}
	return value, err
}

// Set saves value under the given key, replacing any previous value.
func (qc *QL) Set(key string, value []byte) error {
	const dbDelete = `DELETE FROM blobs WHERE k == ?1`
	const dbInsert = `INSERT INTO blobs VALUES (?1, ?2)`

	tx, err := qc.db.Begin()
	if err != nil {
		return err
	}
	_, err = tx.Exec(dbDelete, key)
	if err == nil {
		_, err = tx.Exec(dbInsert, key, value)
	}
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Delete the given key. It is not an error if the key does not exist.
func (qc *QL) Delete(key string) error {
	const dbDelete = `DELETE FROM blobs WHERE k == ?1`

	_, err := performExec(qc.db, dbDelete, key)
	return err
}

// ListPrefix returns the keys having the given prefix, in sorted order.
// QL has no LIKE operator, so the filtering happens here.
func (qc *QL) ListPrefix(prefix string) ([]string, error) {
	const dbList = `SELECT k FROM blobs ORDER BY k`

	rows, err := qc.db.Query(dbList)
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
		if strings.HasPrefix(k, prefix) {
			result = append(result, k)
		}
	}
	return result, rows.Err()
}

// Close the underlying database handle.
func (qc *QL) Close() error {
	return qc.db.Close()
}

// QL requires every Exec to happen inside a transaction.
func performExec(db *sql.DB, query string, args ...interface{}) (sql.Result, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	var result sql.Result
	result, err = tx.Exec(query, args...)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	err = tx.Commit()
	return result, err
}
