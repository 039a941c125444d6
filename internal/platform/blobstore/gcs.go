package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const gcsOpTimeout = 2 * time.Minute

// GCSStore keeps recordings in a Google Cloud Storage bucket. Recording
// metadata rides on the objects themselves, so no extra table is needed.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore wraps an existing storage client and bucket name.
func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

func (s *GCSStore) Upload(ctx context.Context, meta RecordingMetadata, content io.Reader) (*RecordingMetadata, error) {
	data, err := readAll(&meta, content)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, gcsOpTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(meta.Key).NewWriter(ctx)
	w.ContentType = meta.ContentType
	w.Metadata = map[string]string{
		"task":       meta.Task,
		"doctor_id":  meta.DoctorID,
		"patient_id": meta.PatientID,
		"file_name":  meta.FileName,
		"hash":       meta.Hash,
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("writing recording to gcs: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing gcs writer: %w", err)
	}

	out := meta
	return &out, nil
}

func (s *GCSStore) Download(ctx context.Context, key string) (io.ReadCloser, *RecordingMetadata, error) {
	meta, err := s.GetMetadata(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, nil, ErrRecordingNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening gcs reader: %w", err)
	}
	return r, meta, nil
}

func (s *GCSStore) GetMetadata(ctx context.Context, key string) (*RecordingMetadata, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrRecordingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading gcs attributes: %w", err)
	}
	return metaFromAttrs(attrs), nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrRecordingNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting gcs object: %w", err)
	}
	return nil
}

func (s *GCSStore) ListByPatient(ctx context.Context, doctorID, patientID string) ([]*RecordingMetadata, error) {
	prefix := fmt.Sprintf("recordings/%s/%s/", doctorID, patientID)
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var out []*RecordingMetadata
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing gcs objects: %w", err)
		}
		out = append(out, metaFromAttrs(attrs))
	}
	return out, nil
}

func metaFromAttrs(attrs *storage.ObjectAttrs) *RecordingMetadata {
	meta := &RecordingMetadata{
		Key:         attrs.Name,
		ContentType: attrs.ContentType,
		Size:        attrs.Size,
		CreatedAt:   attrs.Created,
	}
	if attrs.Metadata != nil {
		meta.Task = attrs.Metadata["task"]
		meta.DoctorID = attrs.Metadata["doctor_id"]
		meta.PatientID = attrs.Metadata["patient_id"]
		meta.FileName = attrs.Metadata["file_name"]
		meta.Hash = attrs.Metadata["hash"]
	}
	return meta
}
