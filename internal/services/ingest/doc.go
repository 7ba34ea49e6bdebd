// Package ingest publishes asset records to the external search index.
//
// Each record is sent as POST {base}/assets with the asset ID as the
// Idempotency-Key header, so a replay of the same metadata.json never
// creates a second record. A 409 response means the record already exists
// and is not an error. Timeouts, 408, 429 and 5xx responses are retried with
// exponential backoff that honours Retry-After; other 4xx responses are
// rejections and are not retried.
//
// Ingestion runs after the asset is committed to disk, so a failure here
// never touches local files. Replay re-posts an existing metadata.json.
package ingest
