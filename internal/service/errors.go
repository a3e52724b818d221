package service

import (
	"errors"
	"fmt"
	"site-inventory/internal/models"
	"strings"
)

var (
	ErrProjectNotFound     = errors.New("project not found")
	ErrBatchNotFound       = errors.New("import batch not found")
	ErrUnsupportedFileType = errors.New("unsupported file type, expected .xlsx or .csv")
	ErrEmptyFile           = errors.New("file contains no header row")
	ErrUnreadableFile      = errors.New("file could not be read")
)

// HeaderMismatchError rejects a whole file whose header row differs from SiteImportHeaders.
type HeaderMismatchError struct {
	Expected []string
	Received []string
}

func (e *HeaderMismatchError) Error() string {
	return fmt.Sprintf("header mismatch: expected [%s], received [%s]",
		strings.Join(e.Expected, ", "), strings.Join(e.Received, ", "))
}

// BatchConflictError is returned when a commit targets a batch that is no
// longer pending, or that another caller is committing right now.
type BatchConflictError struct {
	BatchID    string
	Status     models.BatchStatus
	InProgress bool
}

func (e *BatchConflictError) Error() string {
	if e.InProgress {
		return fmt.Sprintf("import batch %s commit in progress", e.BatchID)
	}
	return fmt.Sprintf("import batch %s already committed (status %s)", e.BatchID, e.Status)
}
