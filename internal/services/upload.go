package services

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/openkanban/taskboard/internal/config"
	"github.com/openkanban/taskboard/pkg/response"
)

// StoredFile describes a file persisted to the upload directory.
type StoredFile struct {
	OriginalName string
	StoredName   string
	URL          string
	Size         int64
	MimeType     string
}

// UploadService writes attachment files under a flat directory, naming
// each one with a random uuid so uploads can never collide or traverse
// outside the directory.
type UploadService struct {
	dir     string
	baseURL string
}

func NewUploadService(cfg *config.UploadConfig) (*UploadService, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return &UploadService{
		dir:     cfg.Dir,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Dir returns the directory files are stored in, for static serving.
func (s *UploadService) Dir() string { return s.dir }

// Save streams the reader to disk under a generated name. The original
// name contributes only its extension.
func (s *UploadService) Save(r io.Reader, originalName, mimeType string) (*StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	storedName := uuid.New().String() + ext

	f, err := os.Create(filepath.Join(s.dir, storedName))
	if err != nil {
		return nil, response.NewServerError("failed to store file")
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(f.Name())
		return nil, response.NewServerError("failed to store file")
	}

	return &StoredFile{
		OriginalName: filepath.Base(originalName),
		StoredName:   storedName,
		URL:          s.baseURL + "/" + storedName,
		Size:         size,
		MimeType:     mimeType,
	}, nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *UploadService) Remove(storedName string) error {
	// stored names are uuid-generated; reject anything path-like anyway
	if storedName == "" || storedName != filepath.Base(storedName) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, storedName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
