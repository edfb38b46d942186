package invoice

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"invoice-pipeline/internal/docai"
)

// IDGenerator generates unique IDs for batches
type IDGenerator interface {
	Generate() string
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// FileFailure records why one document of a batch could not be processed.
// Failures never abort the batch; the rows that succeeded are kept.
type FileFailure struct {
	SourceFile string `json:"source_file"`
	Reason     string `json:"reason"`
}

// Batch is the long-lived artifact of processing a set of documents: the
// consolidated table, its stats, and which files failed. Re-processing creates
// a new batch; an existing batch is never patched in place.
type Batch struct {
	ID          string        `json:"id"`
	Rows        Table         `json:"rows"`
	Stats       Stats         `json:"stats"`
	Failures    []FileFailure `json:"failures,omitempty"`
	FileCount   int           `json:"file_count"`
	StoredFiles []string      `json:"stored_files,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// BatchFile is one uploaded document to process
type BatchFile struct {
	Filename    string
	Data        []byte
	ContentType string
}

// Service runs the extraction pipeline over batches of documents
type Service struct {
	db          DB
	processor   docai.Processor
	storage     Storage
	builder     *Builder
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, processor docai.Processor, storage Storage) *Service {
	ts := &defaultTimeSource{}
	return &Service{
		db:          db,
		processor:   processor,
		storage:     storage,
		builder:     NewBuilderWithTimeSource(ts),
		idGenerator: &defaultIDGenerator{},
		timeSource:  ts,
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, processor docai.Processor, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		processor:   processor,
		storage:     storage,
		builder:     NewBuilderWithTimeSource(timeSrc),
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "invoice"
	}

	return base + ext
}

// ProcessBatch runs the pipeline over the given files, one document at a time:
// store the original, call the document-understanding processor, extract the
// record, build rows. A failing document is recorded in Failures and does not
// abort the batch; a document with zero line items is a legitimate outcome that
// contributes zero rows. The resulting batch is persisted before returning.
func (s *Service) ProcessBatch(files []BatchFile) (*Batch, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("at least one file is required")
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	batch := &Batch{
		ID:        id,
		FileCount: len(files),
		CreatedAt: now,
	}

	sources := make([]SourceRecord, 0, len(files))
	for i, file := range files {
		cleanFilename := sanitizeFilename(file.Filename)
		savedPath, err := s.storage.Save(fmt.Sprintf("%s_%d_%s", id, i, cleanFilename), file.Data)
		if err != nil {
			return nil, fmt.Errorf("saving file %s: %w", file.Filename, err)
		}
		batch.StoredFiles = append(batch.StoredFiles, savedPath)

		doc, err := s.processor.ProcessDocument(file.Data, file.ContentType)
		if err != nil {
			slog.Error("Failed to process document",
				"batch_id", id,
				"filename", file.Filename,
				"content_type", file.ContentType,
				"file_size", len(file.Data),
				"error", err,
			)
			batch.Failures = append(batch.Failures, FileFailure{
				SourceFile: file.Filename,
				Reason:     err.Error(),
			})
			continue
		}

		sources = append(sources, SourceRecord{
			Record:     ExtractRecord(doc),
			SourceFile: file.Filename,
		})
	}

	batch.Rows = s.builder.MergeAll(sources)
	batch.Stats = Summarize(batch.Rows)

	if err := s.db.SaveBatch(batch); err != nil {
		return nil, fmt.Errorf("saving batch to database: %w", err)
	}

	slog.Info("Processed batch",
		"batch_id", id,
		"files", len(files),
		"rows", len(batch.Rows),
		"failures", len(batch.Failures),
	)

	return batch, nil
}

// GetBatch retrieves a batch by ID
func (s *Service) GetBatch(id string) (*Batch, error) {
	batch, err := s.db.GetBatch(id)
	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}
	return batch, nil
}

// ListBatches returns all batches
func (s *Service) ListBatches() ([]*Batch, error) {
	batches, err := s.db.ListBatches()
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	return batches, nil
}

// DeleteBatch removes a batch and its stored originals
func (s *Service) DeleteBatch(id string) error {
	batch, err := s.db.GetBatch(id)
	if err != nil {
		return fmt.Errorf("getting batch for deletion: %w", err)
	}

	for _, path := range batch.StoredFiles {
		if err := s.storage.Delete(path); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete file", "filename", path, "error", err)
		}
	}

	if err := s.db.DeleteBatch(id); err != nil {
		return fmt.Errorf("deleting batch from database: %w", err)
	}
	return nil
}

// SummarizeBatch recomputes statistics from the batch's stored rows
func (s *Service) SummarizeBatch(id string) (Stats, error) {
	batch, err := s.db.GetBatch(id)
	if err != nil {
		return Stats{}, fmt.Errorf("getting batch: %w", err)
	}
	return Summarize(batch.Rows), nil
}

// ExportBatch writes a batch's table to destDir in the given format and returns
// the path written. The format is validated before any file is touched.
func (s *Service) ExportBatch(id string, format string, destDir string) (string, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return "", err
	}

	batch, err := s.db.GetBatch(id)
	if err != nil {
		return "", fmt.Errorf("getting batch: %w", err)
	}

	path, err := Export(batch.Rows, f, filepath.Join(destDir, "batch_"+batch.ID))
	if err != nil {
		return "", fmt.Errorf("exporting batch: %w", err)
	}
	return path, nil
}
