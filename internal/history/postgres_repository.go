package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skyforecaster/skyforecaster/internal/aqi"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL history repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Append stores a record.
func (r *PostgresRepository) Append(ctx context.Context, record *Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	query := `
		INSERT INTO aq_history (
			id, grid_key, lat, lon,
			pm25, pm10, no2, o3, co, so2,
			aqi, primary_pollutant, source, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.GridKey,
		record.Lat,
		record.Lon,
		record.Concentrations.PM25,
		record.Concentrations.PM10,
		record.Concentrations.NO2,
		record.Concentrations.O3,
		record.Concentrations.CO,
		record.Concentrations.SO2,
		record.AQI,
		string(record.PrimaryPollutant),
		record.Source,
		record.RecordedAt,
	)
	return err
}

// ListSince returns records for a grid cell recorded at or after since.
func (r *PostgresRepository) ListSince(ctx context.Context, gridKey string, since time.Time) ([]*Record, error) {
	query := `
		SELECT
			id, grid_key, lat, lon,
			pm25, pm10, no2, o3, co, so2,
			aqi, primary_pollutant, source, recorded_at
		FROM aq_history
		WHERE grid_key = $1 AND recorded_at >= $2
		ORDER BY recorded_at ASC
	`

	rows, err := r.pool.Query(ctx, query, gridKey, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var record Record
		var primary string
		err := rows.Scan(
			&record.ID,
			&record.GridKey,
			&record.Lat,
			&record.Lon,
			&record.Concentrations.PM25,
			&record.Concentrations.PM10,
			&record.Concentrations.NO2,
			&record.Concentrations.O3,
			&record.Concentrations.CO,
			&record.Concentrations.SO2,
			&record.AQI,
			&primary,
			&record.Source,
			&record.RecordedAt,
		)
		if err != nil {
			return nil, err
		}
		record.PrimaryPollutant = aqi.Pollutant(primary)
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// DeleteOlderThan removes records recorded before the cutoff.
func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM aq_history WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
