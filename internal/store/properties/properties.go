package properties

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/store"
)

// PropertiesRepository reads the local property directory: which owner holds
// which property, and the property's id in the reservation system.
type PropertiesRepository struct {
	db  *store.DB
	log *zap.Logger
}

func NewPropertiesRepository(db *store.DB, log *zap.Logger) *PropertiesRepository {
	return &PropertiesRepository{db: db, log: log}
}

func (r *PropertiesRepository) ExternalIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	query := `
		SELECT DISTINCT external_id
		FROM properties
		WHERE owner_id = $1 AND external_id <> ''
		ORDER BY external_id`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query owner properties: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.log.Debug("resolved owner properties", zap.String("owner_id", ownerID), zap.Int("count", len(ids)))
	return ids, nil
}

// CountManaged counts properties with a reservation-system id.
func (r *PropertiesRepository) CountManaged(ctx context.Context) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(DISTINCT external_id) FROM properties WHERE external_id <> ''`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// AddProperty records that ownerID holds the property known upstream as
// externalID. Re-adding the same pair is a no-op.
func (r *PropertiesRepository) AddProperty(ctx context.Context, ownerID, externalID, name string) error {
	query := `
		INSERT INTO properties (owner_id, external_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, external_id) DO NOTHING`

	if _, err := r.db.Pool.Exec(ctx, query, ownerID, strings.TrimSpace(externalID), name); err != nil {
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}
