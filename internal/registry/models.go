package registry

import (
	"database/sql"
	"time"
)

// Record is one registered asset version.
type Record struct {
	AssetID      string     `json:"asset_id"`
	BaseUID      string     `json:"base_uid"`
	VariantID    string     `json:"variant_id"`
	Version      int        `json:"version"`
	Name         string     `json:"name"`
	AssetType    string     `json:"asset_type"`
	Subcategory  string     `json:"subcategory"`
	AssetDir     string     `json:"asset_dir"`
	MetadataPath string     `json:"metadata_path"`
	CreatedAt    time.Time  `json:"created_at"`
	IngestedAt   *time.Time `json:"ingested_at,omitempty"`
	ExternalID   string     `json:"external_id,omitempty"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	BaseUID       string
	AssetType     string
	PendingIngest bool
	Limit         int
}

const recordColumns = "asset_id, base_uid, variant_id, version, name, asset_type, subcategory, asset_dir, metadata_path, created_at, ingested_at, external_id"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec         Record
		createdRaw  string
		ingestedRaw sql.NullString
		externalID  sql.NullString
	)
	if err := scanner.Scan(
		&rec.AssetID,
		&rec.BaseUID,
		&rec.VariantID,
		&rec.Version,
		&rec.Name,
		&rec.AssetType,
		&rec.Subcategory,
		&rec.AssetDir,
		&rec.MetadataPath,
		&createdRaw,
		&ingestedRaw,
		&externalID,
	); err != nil {
		return nil, err
	}
	rec.CreatedAt = parseTime(createdRaw)
	if ingestedRaw.Valid && ingestedRaw.String != "" {
		ts := parseTime(ingestedRaw.String)
		rec.IngestedAt = &ts
	}
	rec.ExternalID = externalID.String
	return &rec, nil
}

func parseTime(raw string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
