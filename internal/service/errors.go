package service

import "errors"

// Outcome kinds returned by the catalog services. Handlers match them with errors.Is.
var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrDatabaseConflict = errors.New("database integrity violation")
	ErrValidation       = errors.New("validation failed")
)
