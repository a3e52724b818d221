package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	DefaultMaxValidRows = 10000
	DefaultMaxErrorRows = 500
)

type BatchStatus string

const (
	BatchStatusPending   BatchStatus = "pending"
	BatchStatusCommitted BatchStatus = "committed"
	BatchStatusPartial   BatchStatus = "partial"
)

// ImportBatch is one uploaded file's staged validation result and its commit outcome.
type ImportBatch struct {
	ID             string         `db:"id" json:"id"`
	ProjectID      string         `db:"project_id" json:"project_id"`
	UploadedBy     int            `db:"uploaded_by" json:"uploaded_by"`
	UploadedAt     time.Time      `db:"uploaded_at" json:"uploaded_at"`
	Filename       string         `db:"filename" json:"filename"`
	ImportName     *string        `db:"import_name" json:"import_name,omitempty"`
	SourceChecksum string         `db:"source_checksum" json:"source_checksum"`
	TotalRows      int            `db:"total_rows" json:"total_rows"`
	ImportedRows   int            `db:"imported_rows" json:"imported_rows"`
	ErrorRows      int            `db:"error_rows" json:"error_rows"`
	SkippedRows    int            `db:"skipped_rows" json:"skipped_rows"`
	DroppedValid   int            `db:"dropped_valid_rows" json:"dropped_valid_rows"`
	DroppedErrors  int            `db:"dropped_error_rows" json:"dropped_error_rows"`
	ValidRows      SiteImportRows `db:"valid_rows" json:"-"`
	ErrorDetails   RowErrors      `db:"error_details" json:"-"`
	Status         BatchStatus    `db:"status" json:"status"`
	CommitStarted  *time.Time     `db:"commit_started_at" json:"-"`
	CommittedBy    *int           `db:"committed_by" json:"committed_by,omitempty"`
	CommittedAt    *time.Time     `db:"committed_at" json:"committed_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// ImportBatchSummary is the list view of a batch, without the staged payloads.
type ImportBatchSummary struct {
	ID           string      `db:"id" json:"id"`
	ProjectID    string      `db:"project_id" json:"project_id"`
	UploadedBy   int         `db:"uploaded_by" json:"uploaded_by"`
	UploadedAt   time.Time   `db:"uploaded_at" json:"uploaded_at"`
	Filename     string      `db:"filename" json:"filename"`
	ImportName   *string     `db:"import_name" json:"import_name,omitempty"`
	TotalRows    int         `db:"total_rows" json:"total_rows"`
	ImportedRows int         `db:"imported_rows" json:"imported_rows"`
	ErrorRows    int         `db:"error_rows" json:"error_rows"`
	SkippedRows  int         `db:"skipped_rows" json:"skipped_rows"`
	Status       BatchStatus `db:"status" json:"status"`
	CommittedAt  *time.Time  `db:"committed_at" json:"committed_at,omitempty"`
}

// RowError carries every violation found on one spreadsheet row.
type RowError struct {
	Row      int      `json:"row"`
	Messages []string `json:"messages"`
}

// SiteImportRow is a validated row awaiting commit.
type SiteImportRow struct {
	Row              int     `json:"row"`
	SiteID           string  `json:"site_id"`
	Name             string  `json:"name"`
	Area             string  `json:"area"`
	District         string  `json:"district"`
	Provider         string  `json:"provider"`
	ProviderResident string  `json:"provider_resident"`
	Address          string  `json:"address"`
	City             string  `json:"city"`
	County           string  `json:"county"`
	State            string  `json:"state"`
	Zip              string  `json:"zip"`
	CMAID            string  `json:"cma_id"`
	CMAName          string  `json:"cma_name"`
	StructureType    string  `json:"structure_type"`
	SiteType         string  `json:"site_type"`
	GECode           string  `json:"ge_code"`
	StructureHeight  float64 `json:"structure_height"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	AlternateID      string  `json:"alternate_id"`
}

// SiteImportRows is stored as a JSON document column.
type SiteImportRows []SiteImportRow

func (r SiteImportRows) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *SiteImportRows) Scan(src interface{}) error {
	return scanJSON(src, r)
}

// RowErrors is stored as a JSON document column.
type RowErrors []RowError

func (r RowErrors) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *RowErrors) Scan(src interface{}) error {
	return scanJSON(src, r)
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported JSON column type")
	}
}

// ImportOptions are the pipeline settings passed in on every stage and commit call.
type ImportOptions struct {
	MaxValidRows     int
	MaxErrorRows     int
	PreviewRows      int
	ErrorPreviewRows int
	CommitLease      time.Duration
	ProgressEvery    int
	AuditEnabled     bool
}

// DefaultImportOptions mirrors the documented limits.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		MaxValidRows:     DefaultMaxValidRows,
		MaxErrorRows:     DefaultMaxErrorRows,
		PreviewRows:      20,
		ErrorPreviewRows: 100,
		CommitLease:      10 * time.Minute,
		ProgressEvery:    250,
		AuditEnabled:     true,
	}
}
