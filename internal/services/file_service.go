package services

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"taskdesk/internal/models"
)

// FileService stores uploaded attachments under a root dir and hands the
// engine opaque references. The engine itself never sees file bytes.
type FileService struct {
	RootDir string
}

const maxAttachmentSize = 10 << 20 // 10 MiB

var allowedAttachmentExts = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".txt":  true,
	".zip":  true,
}

func NewFileService(rootDir string) *FileService {
	return &FileService{RootDir: filepath.Clean(rootDir)}
}

// SaveUpload validates type and size, stores the file under a generated
// name and returns the reference to embed in the task record.
func (s *FileService) SaveUpload(fh *multipart.FileHeader) (*models.FileRef, error) {
	original := filepath.Base(strings.TrimSpace(fh.Filename))
	ext := strings.ToLower(filepath.Ext(original))
	if !allowedAttachmentExts[ext] {
		return nil, validationErr("attachment", "file type not allowed")
	}
	if fh.Size > maxAttachmentSize {
		return nil, validationErr("attachment", "file too large")
	}

	if err := os.MkdirAll(s.RootDir, 0o755); err != nil {
		return nil, fmt.Errorf("create files dir: %w", err)
	}

	stored := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.RootDir, stored))
	if err != nil {
		return nil, fmt.Errorf("create attachment: %w", err)
	}
	defer dst.Close()

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if _, err := dst.ReadFrom(src); err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	return &models.FileRef{Filename: stored, OriginalName: original}, nil
}

// Path resolves a stored reference back to an absolute path.
func (s *FileService) Path(ref *models.FileRef) string {
	return filepath.Join(s.RootDir, filepath.Base(ref.Filename))
}
