package common

import (
	"fmt"
	"path"
	"strings"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Accepted upload types
var (
	ImageContentTypes = []string{"image/jpeg", "image/png", "image/webp"}
	ProofContentTypes = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}
)

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// ValidateUpload checks size and content type
func ValidateUpload(f UploadedFile, allowed []string, maxSize int64) error {
	if f.Body == nil || f.Size <= 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "File is empty")
	}
	if maxSize > 0 && f.Size > maxSize {
		return shared.NewDomainError("FILE_TOO_LARGE", fmt.Sprintf("File exceeds %d bytes", maxSize))
	}
	ct := strings.ToLower(strings.TrimSpace(strings.Split(f.ContentType, ";")[0]))
	for _, a := range allowed {
		if ct == a {
			return nil
		}
	}
	return shared.NewDomainError("UNSUPPORTED_FILE_TYPE", "File type not allowed: "+ct)
}

// ObjectKey builds "<prefix>/<owner>/<random><ext>"
func ObjectKey(prefix string, owner uuid.UUID, f UploadedFile) string {
	ext := extensions[strings.ToLower(strings.Split(f.ContentType, ";")[0])]
	if ext == "" {
		ext = strings.ToLower(path.Ext(f.Filename))
	}
	return fmt.Sprintf("%s/%s/%s%s", prefix, owner, uuid.NewString(), ext)
}
