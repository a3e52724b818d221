package models

import "time"

type Project struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Site is the committed inventory record. (ProjectID, SiteID) is unique among
// non-deleted sites.
type Site struct {
	ID        string `db:"id" json:"id"`
	ProjectID string `db:"project_id" json:"project_id"`
	SiteID    string `db:"site_id" json:"site_id"`

	Name             string `db:"name" json:"name"`
	Area             string `db:"area" json:"area"`
	District         string `db:"district" json:"district"`
	Provider         string `db:"provider" json:"provider"`
	ProviderResident bool   `db:"provider_resident" json:"provider_resident"`

	// Address block
	Address string `db:"address" json:"address"`
	City    string `db:"city" json:"city"`
	County  string `db:"county" json:"county"`
	State   string `db:"state" json:"state"`
	Zip     string `db:"zip" json:"zip"`
	ZipFull string `db:"zip_full" json:"zip_full"`

	CMAID           string  `db:"cma_id" json:"cma_id"`
	CMAName         string  `db:"cma_name" json:"cma_name"`
	StructureType   string  `db:"structure_type" json:"structure_type"`
	SiteType        string  `db:"site_type" json:"site_type"`
	GECode          string  `db:"ge_code" json:"ge_code"`
	StructureHeight float64 `db:"structure_height" json:"structure_height"`

	// Coordinates
	Latitude     float64 `db:"latitude" json:"latitude"`
	Longitude    float64 `db:"longitude" json:"longitude"`
	AltLatitude  float64 `db:"alt_latitude" json:"alt_latitude"`
	AltLongitude float64 `db:"alt_longitude" json:"alt_longitude"`

	AlternateID   string  `db:"alternate_id" json:"alternate_id"`
	ImportBatchID *string `db:"import_batch_id" json:"import_batch_id,omitempty"`

	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	CreatedBy int       `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
