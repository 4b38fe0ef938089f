package utils

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

const uploadDir = "uploads"

// EnsureUploadDir creates the local course-material directory. Only
// needed when R2 is not configured; main serves it under /uploads.
func EnsureUploadDir() error {
	return os.MkdirAll(uploadDir, os.ModePerm)
}

// SaveFile writes an uploaded course-material file to destPath,
// creating intermediate directories for keys like materials/<uuid>.pdf.
func SaveFile(fileHeader *multipart.FileHeader, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// GetUploadPath maps a material key to its on-disk location.
func GetUploadPath(key string) string {
	return filepath.Join(uploadDir, key)
}
