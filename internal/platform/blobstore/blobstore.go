// Package blobstore stores the voice recordings captured during an
// assessment. It defines the Store interface, an in-memory implementation
// for testing and development, a GCS-backed implementation, and the Echo
// handlers for multipart upload and download.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var (
	ErrRecordingNotFound  = errors.New("recording not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
)

// MaxFileSize caps a single recording at 25 MB.
const MaxFileSize = 25 * 1024 * 1024

// AllowedContentTypes lists the audio MIME types the recorder may produce.
var AllowedContentTypes = map[string]bool{
	"audio/wav":  true,
	"audio/wave": true,
	"audio/mpeg": true,
	"audio/ogg":  true,
	"audio/webm": true,
}

// RecordingMetadata describes one stored recording. Key is the
// doctor/patient/task-scoped object path and doubles as the lookup handle.
type RecordingMetadata struct {
	Key         string    `json:"key"`
	Task        string    `json:"task"`
	DoctorID    string    `json:"doctor_id"`
	PatientID   string    `json:"patient_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// ObjectKey builds the canonical object path for a recording. One object per
// task per patient; a re-recording overwrites the previous take.
func ObjectKey(doctorID, patientID, task string) string {
	return fmt.Sprintf("recordings/%s/%s/%s", doctorID, patientID, task)
}

// Store is the recording storage contract.
type Store interface {
	Upload(ctx context.Context, meta RecordingMetadata, content io.Reader) (*RecordingMetadata, error)
	Download(ctx context.Context, key string) (io.ReadCloser, *RecordingMetadata, error)
	GetMetadata(ctx context.Context, key string) (*RecordingMetadata, error)
	Delete(ctx context.Context, key string) error
	ListByPatient(ctx context.Context, doctorID, patientID string) ([]*RecordingMetadata, error)
}

// readAll drains the upload, enforcing the size cap and computing the
// content hash. Shared by both implementations so they validate identically.
func readAll(meta *RecordingMetadata, content io.Reader) ([]byte, error) {
	if !AllowedContentTypes[meta.ContentType] {
		return nil, ErrInvalidContentType
	}
	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", sha256.Sum256(data))
	meta.CreatedAt = time.Now().UTC()
	meta.Key = ObjectKey(meta.DoctorID, meta.PatientID, meta.Task)
	return data, nil
}

type storedRecording struct {
	metadata RecordingMetadata
	content  []byte
}

// InMemoryStore is a thread-safe, in-memory Store for testing/dev.
type InMemoryStore struct {
	mu         sync.RWMutex
	recordings map[string]*storedRecording
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{recordings: make(map[string]*storedRecording)}
}

func (s *InMemoryStore) Upload(_ context.Context, meta RecordingMetadata, content io.Reader) (*RecordingMetadata, error) {
	data, err := readAll(&meta, content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.recordings[meta.Key] = &storedRecording{metadata: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *InMemoryStore) Download(_ context.Context, key string) (io.ReadCloser, *RecordingMetadata, error) {
	s.mu.RLock()
	rec, ok := s.recordings[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrRecordingNotFound
	}
	meta := rec.metadata
	return io.NopCloser(bytes.NewReader(rec.content)), &meta, nil
}

func (s *InMemoryStore) GetMetadata(_ context.Context, key string) (*RecordingMetadata, error) {
	s.mu.RLock()
	rec, ok := s.recordings[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrRecordingNotFound
	}
	meta := rec.metadata
	return &meta, nil
}

func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recordings[key]; !ok {
		return ErrRecordingNotFound
	}
	delete(s.recordings, key)
	return nil
}

func (s *InMemoryStore) ListByPatient(_ context.Context, doctorID, patientID string) ([]*RecordingMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*RecordingMetadata
	for _, rec := range s.recordings {
		if rec.metadata.DoctorID == doctorID && rec.metadata.PatientID == patientID {
			meta := rec.metadata
			out = append(out, &meta)
		}
	}
	return out, nil
}
