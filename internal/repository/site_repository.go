package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"site-inventory/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// active_key is a generated column and is never selected.
const siteColumns = `id, project_id, site_id, name, area, district, provider, provider_resident,
	address, city, county, state, zip, zip_full, cma_id, cma_name, structure_type, site_type,
	ge_code, structure_height, latitude, longitude, alt_latitude, alt_longitude, alternate_id,
	import_batch_id, is_deleted, created_by, created_at, updated_at`

type SiteRepository struct {
	db *sqlx.DB
}

func NewSiteRepository(db *sqlx.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// FindActiveByKey returns the live site with the natural key, or nil when there is none.
func (r *SiteRepository) FindActiveByKey(ctx context.Context, projectID, siteID string) (*models.Site, error) {
	var site models.Site
	query := "SELECT " + siteColumns + " FROM sites WHERE project_id = ? AND site_id = ? AND is_deleted = 0 LIMIT 1"
	err := r.db.GetContext(ctx, &site, query, projectID, siteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find site %s/%s: %w", projectID, siteID, err)
	}
	return &site, nil
}

// Create inserts a site. A live site with the same key yields ErrDuplicateKey.
func (r *SiteRepository) Create(ctx context.Context, site *models.Site) error {
	if site.ID == "" {
		site.ID = uuid.NewString()
	}
	query := `INSERT INTO sites (id, project_id, site_id, name, area, district, provider,
	          provider_resident, address, city, county, state, zip, zip_full, cma_id, cma_name,
	          structure_type, site_type, ge_code, structure_height, latitude, longitude,
	          alt_latitude, alt_longitude, alternate_id, import_batch_id, is_deleted, created_by)
	          VALUES (:id, :project_id, :site_id, :name, :area, :district, :provider,
	          :provider_resident, :address, :city, :county, :state, :zip, :zip_full, :cma_id, :cma_name,
	          :structure_type, :site_type, :ge_code, :structure_height, :latitude, :longitude,
	          :alt_latitude, :alt_longitude, :alternate_id, :import_batch_id, :is_deleted, :created_by)`
	_, err := r.db.NamedExecContext(ctx, query, site)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert site %s: %w", site.SiteID, err)
	}
	return nil
}
