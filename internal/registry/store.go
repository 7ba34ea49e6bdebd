package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"assetlib/internal/config"
)

// Store persists exported asset records in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the registry database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.RegistryPath())
}

// connPragmas are applied by the driver to every pooled connection.
var connPragmas = []string{"busy_timeout(5000)", "journal_mode(WAL)", "foreign_keys(1)"}

// OpenPath opens the registry at an explicit database path, creating the
// schema on first use.
func OpenPath(dbPath string) (*Store, error) {
	dsn := dbPath + "?_pragma=" + strings.Join(connPragmas, "&_pragma=")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", dbPath, err)
	}
	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Register records an exported asset. Registering the same asset ID twice
// is a no-op so a replayed export never duplicates a record.
func (s *Store) Register(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.AssetID) == "" {
		return errors.New("registry: asset id is empty")
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT OR IGNORE INTO assets (
            asset_id, base_uid, variant_id, version, name, asset_type, subcategory,
            asset_dir, metadata_path, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.AssetID,
		rec.BaseUID,
		rec.VariantID,
		rec.Version,
		rec.Name,
		rec.AssetType,
		rec.Subcategory,
		rec.AssetDir,
		rec.MetadataPath,
		created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("register asset: %w", err)
	}
	return nil
}

// MarkIngested stores the external index outcome for an asset.
func (s *Store) MarkIngested(ctx context.Context, assetID, externalID string) error {
	_, err := s.exec(ctx,
		`UPDATE assets SET ingested_at = ?, external_id = ? WHERE asset_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		nullableString(externalID),
		assetID,
	)
	if err != nil {
		return fmt.Errorf("mark ingested: %w", err)
	}
	return nil
}

// Get fetches one record. A missing record returns nil, nil.
func (s *Store) Get(ctx context.Context, assetID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM assets WHERE asset_id = ?`, assetID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return rec, nil
}

// Versions lists every version registered for one lineage.
func (s *Store) Versions(ctx context.Context, baseUID, variantID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version FROM assets WHERE base_uid = ? AND variant_id = ? ORDER BY version`,
		baseUID, variantID)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Variants lists the distinct variant codes registered for a base UID.
func (s *Store) Variants(ctx context.Context, baseUID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT variant_id FROM assets WHERE base_uid = ? ORDER BY variant_id`, baseUID)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// BaseExists reports whether any record uses baseUID.
func (s *Store) BaseExists(ctx context.Context, baseUID string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM assets WHERE base_uid = ?`, baseUID).Scan(&count); err != nil {
		return false, fmt.Errorf("query base uid: %w", err)
	}
	return count > 0, nil
}

// List returns records matching filter, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Record, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.BaseUID != "" {
		clauses = append(clauses, "base_uid = ?")
		args = append(args, filter.BaseUID)
	}
	if filter.AssetType != "" {
		clauses = append(clauses, "asset_type = ?")
		args = append(args, filter.AssetType)
	}
	if filter.PendingIngest {
		clauses = append(clauses, "ingested_at IS NULL")
	}
	query := `SELECT ` + recordColumns + ` FROM assets`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC, asset_id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
