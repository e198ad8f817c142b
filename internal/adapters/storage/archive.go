package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"
)

const snapshotContentType = "application/json"

// QuotationArchive stores archived quotation snapshots in one bucket under
// {organization}/{quotation}/snapshot.json. Storing the same quotation twice
// overwrites the document, so archive retries are idempotent.
type QuotationArchive struct {
	store  ObjectStore
	bucket string
}

// NewQuotationArchive creates the archive over an object store.
func NewQuotationArchive(store ObjectStore, bucket string) *QuotationArchive {
	return &QuotationArchive{store: store, bucket: bucket}
}

// Init makes sure the archive bucket exists.
func (a *QuotationArchive) Init(ctx context.Context) error {
	return a.store.EnsureBucketExists(ctx, a.bucket)
}

// SnapshotKey returns the object key of a quotation snapshot.
func SnapshotKey(orgID, quotationID uuid.UUID) string {
	return path.Join(orgID.String(), quotationID.String(), "snapshot.json")
}

// StoreQuotationSnapshot uploads the snapshot and returns its key.
func (a *QuotationArchive) StoreQuotationSnapshot(ctx context.Context, orgID, quotationID uuid.UUID, body []byte) (string, error) {
	if err := ValidateFileSize(int64(len(body))); err != nil {
		return "", err
	}
	if err := ValidateContentType(snapshotContentType); err != nil {
		return "", err
	}

	key := SnapshotKey(orgID, quotationID)
	if err := a.store.PutObject(ctx, a.bucket, key, snapshotContentType, bytes.NewReader(body), int64(len(body))); err != nil {
		return "", fmt.Errorf("archive quotation %s: %w", quotationID, err)
	}
	return key, nil
}
