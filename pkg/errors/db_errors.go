// Package errors classifies database errors returned by gorm and the MySQL driver.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// DatabaseErrorType represents the type of database error.
type DatabaseErrorType int

const (
	ErrorTypeUnknown DatabaseErrorType = iota
	ErrorTypeDuplicateKey
	ErrorTypeNotFound
	ErrorTypeDeadlock
	ErrorTypeConnectionError
	ErrorTypeDataTooLong
)

// DatabaseError wraps a database error with classification information.
type DatabaseError struct {
	Type         DatabaseErrorType
	OriginalErr  error
	MySQLErrCode uint16
	Message      string
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	if e.MySQLErrCode > 0 {
		return fmt.Sprintf("%s (MySQL error %d): %v", e.Message, e.MySQLErrCode, e.OriginalErr)
	}
	return fmt.Sprintf("%s: %v", e.Message, e.OriginalErr)
}

// Unwrap returns the underlying error for errors.Is and errors.As compatibility.
func (e *DatabaseError) Unwrap() error {
	return e.OriginalErr
}

var mysqlCodes = map[uint16]struct {
	typ DatabaseErrorType
	msg string
}{
	1062: {ErrorTypeDuplicateKey, "duplicate key constraint violation"},
	1213: {ErrorTypeDeadlock, "deadlock detected"},
	1406: {ErrorTypeDataTooLong, "data too long for column"},
}

var connectionKeywords = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"bad connection",
	"can't connect",
	"dial tcp",
}

// ClassifyDBError classifies err. A nil err yields nil.
//
//	if dbErr := errors.ClassifyDBError(err); dbErr.Type == errors.ErrorTypeDuplicateKey {
//	    // the row already exists
//	}
func ClassifyDBError(err error) *DatabaseError {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &DatabaseError{Type: ErrorTypeNotFound, OriginalErr: err, Message: "record not found"}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &DatabaseError{Type: ErrorTypeDuplicateKey, OriginalErr: err, Message: "duplicate key constraint violation"}
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if c, ok := mysqlCodes[mysqlErr.Number]; ok {
			return &DatabaseError{Type: c.typ, OriginalErr: err, MySQLErrCode: mysqlErr.Number, Message: c.msg}
		}
		return &DatabaseError{Type: ErrorTypeUnknown, OriginalErr: err, MySQLErrCode: mysqlErr.Number, Message: "MySQL error"}
	}

	lower := strings.ToLower(err.Error())
	for _, keyword := range connectionKeywords {
		if strings.Contains(lower, keyword) {
			return &DatabaseError{Type: ErrorTypeConnectionError, OriginalErr: err, Message: "database connection error"}
		}
	}

	return &DatabaseError{Type: ErrorTypeUnknown, OriginalErr: err, Message: "unknown database error"}
}

// IsDuplicateKeyError checks if the error is a duplicate key constraint violation.
func IsDuplicateKeyError(err error) bool {
	dbErr := ClassifyDBError(err)
	return dbErr != nil && dbErr.Type == ErrorTypeDuplicateKey
}

// IsNotFoundError checks if the error is a record not found error.
func IsNotFoundError(err error) bool {
	dbErr := ClassifyDBError(err)
	return dbErr != nil && dbErr.Type == ErrorTypeNotFound
}
