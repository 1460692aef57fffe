package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"schoolsite/internal/derivative"
	"schoolsite/internal/media"
)

// Deriver generates the WebP derivatives of a stored original.
type Deriver interface {
	Generate(ctx context.Context, original string) derivative.Result
}

// Service accepts uploads into category directories and keeps the ledger.
// Accepted image originals get their derivatives before the record is saved.
type Service struct {
	repo             Repository
	layout           *media.Layout
	deriver          Deriver
	purgeDerivatives bool

	now     func() time.Time
	randInt func() int64
}

func NewService(repo Repository, layout *media.Layout, deriver Deriver, purgeDerivatives bool) *Service {
	return &Service{
		repo:             repo,
		layout:           layout,
		deriver:          deriver,
		purgeDerivatives: purgeDerivatives,
		now:              time.Now,
		randInt:          func() int64 { return rand.Int64N(1_000_000_000) },
	}
}

// Accept validates fileHeader against the category policy, writes the
// original and its derivatives, and records it. Validation failures are
// returned as *ValidationError and leave nothing on disk.
func (s *Service) Accept(ctx context.Context, userID int64, category media.Category, fileHeader *multipart.FileHeader) (*Upload, error) {
	policy, ok := media.Lookup(category)
	if !ok || !policy.Uploadable() {
		return nil, fmt.Errorf("category %q does not accept uploads", category)
	}
	if fileHeader == nil {
		return nil, invalid(ErrNoFile, "please choose a file to upload")
	}
	if fileHeader.Size == 0 {
		return nil, invalid(ErrEmptyFile, "the uploaded file is empty")
	}
	if fileHeader.Size > policy.MaxBytes {
		return nil, invalid(ErrFileTooLarge, policy.SizeMessage())
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !policy.AllowsExtension(ext) {
		return nil, invalid(ErrUnsupportedType, policy.TypeMessage())
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	mimeType, err := detectMIME(fileHeader, file)
	if err != nil {
		return nil, err
	}
	if !policy.AllowsMIME(mimeType) {
		return nil, invalid(ErrUnsupportedType, policy.TypeMessage())
	}

	dir, err := s.layout.StoragePath(category)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	now := s.now()
	filename := fmt.Sprintf("%s-%d-%d%s", policy.Prefix, now.UnixMilli(), s.randInt(), ext)
	absPath := filepath.Join(dir, filename)

	size, err := writeLimited(file, absPath, policy.MaxBytes)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return nil, invalid(ErrFileTooLarge, policy.SizeMessage())
		}
		return nil, err
	}

	status := derivative.StatusSkipped
	if derivative.Eligible(absPath) {
		res := s.deriver.Generate(ctx, absPath)
		log.Print(res.LogLine())
		status = res.Status
	}

	upload := &Upload{
		ID:               uuid.New().String(),
		UserID:           userID,
		Category:         string(category),
		FileName:         filename,
		FilePath:         filepath.ToSlash(filepath.Join(policy.Dir, filename)),
		FileURL:          s.layout.PublicURL(category, filename),
		OriginalName:     filepath.Base(fileHeader.Filename),
		MimeType:         mimeType,
		Size:             size,
		DerivativeStatus: string(status),
		CreatedAt:        now,
	}

	if err := s.repo.Create(ctx, upload); err != nil {
		// rollback files on DB error
		_ = os.Remove(absPath)
		_, _ = derivative.Remove(absPath)
		return nil, fmt.Errorf("failed to save upload record: %w", err)
	}

	return upload, nil
}

// GetByID returns upload metadata by ID.
func (s *Service) GetByID(ctx context.Context, id string) (*Upload, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns uploads, newest first, optionally limited to one category.
func (s *Service) List(ctx context.Context, category string) ([]*Upload, error) {
	return s.repo.List(ctx, category)
}

// Delete removes the original from disk and then the record.
func (s *Service) Delete(ctx context.Context, id string) error {
	upload, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.RemoveFile(upload.FileURL); err != nil {
		log.Printf("upload_delete_file_failed id=%s url=%s error=%q", id, upload.FileURL, err.Error())
	}
	return s.repo.Delete(ctx, id)
}

// RemoveFile deletes the original stored at a public /uploads/ path, as
// kept by the owning record. A file that is already gone is not an error.
// Derivatives are removed too only when purging is enabled.
func (s *Service) RemoveFile(publicURL string) error {
	if !strings.HasPrefix(publicURL, media.UploadsURLPrefix) {
		return fmt.Errorf("not an uploads path: %q", publicURL)
	}
	absPath, ok := s.layout.ResolvePublicPath(publicURL)
	if !ok {
		return fmt.Errorf("not an uploads path: %q", publicURL)
	}
	if err := os.Remove(absPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if s.purgeDerivatives {
		if _, err := derivative.Remove(absPath); err != nil {
			return err
		}
	}
	return nil
}

// detectMIME trusts the declared part type unless it is missing or
// generic, in which case the content is sniffed.
func detectMIME(fileHeader *multipart.FileHeader, file multipart.File) (string, error) {
	declared := strings.TrimSpace(fileHeader.Header.Get("Content-Type"))
	if declared != "" && !strings.HasPrefix(declared, "application/octet-stream") {
		return strings.ToLower(strings.Split(declared, ";")[0]), nil
	}

	mt, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind file: %w", err)
	}
	return strings.Split(mt.String(), ";")[0], nil
}

// writeLimited copies at most limit bytes into dst through a temp file in
// the same directory. Anything longer is discarded and reported as too
// large, so a partial original never appears under its final name.
func writeLimited(r io.Reader, dst string, limit int64) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	n, err := io.Copy(tmp, io.LimitReader(r, limit+1))
	if err != nil {
		cleanup()
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	if n > limit {
		cleanup()
		return 0, ErrFileTooLarge
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to store file: %w", err)
	}
	return n, nil
}
