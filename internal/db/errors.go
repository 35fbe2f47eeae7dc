package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound      = errors.New("db: key not found")
	ErrRecordNotFound   = errors.New("db: record not found")
	ErrOperatorNotFound = errors.New("db: similarity operator not found")
	ErrIndexExists      = errors.New("db: index already exists")
)

// Op names used for error context. Valkey ops match command names.
const (
	OpCreateIndex = "FT.CREATE"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpHGetAll     = "HGETALL"
	OpHSet        = "HSET"
	OpExists      = "EXISTS"
	OpScan        = "SCAN"
	OpGet         = "GET"
	OpSet         = "SET"

	OpInsert  = "insert"
	OpUpdate  = "update"
	OpSelect  = "select"
	OpMatch   = "match"
	OpMigrate = "migrate"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
