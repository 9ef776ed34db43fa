package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// ImageSubdir is where post images live under the media directory.
const ImageSubdir = "posts_images"

var (
	ErrImageTooLarge    = errors.New("image is too large")
	ErrUnsupportedImage = errors.New("upload a valid image")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// SaveImage stores an uploaded image under mediaDir with a random name and
// returns its path relative to mediaDir, using forward slashes.
func SaveImage(header *multipart.FileHeader, mediaDir string, maxBytes int64) (string, error) {
	if header.Size > maxBytes {
		return "", ErrImageTooLarge
	}
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	sniff := make([]byte, 512)
	n, err := io.ReadFull(src, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	ext, ok := allowedImageTypes[http.DetectContentType(sniff[:n])]
	if !ok {
		return "", ErrUnsupportedImage
	}

	dir := filepath.Join(mediaDir, ImageSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	name := uuid.NewString() + ext
	dst := filepath.Join(dir, name)
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer out.Close()

	// Enforce the limit on the actual stream, header.Size may lie
	body := io.MultiReader(bytes.NewReader(sniff[:n]), src)
	written, err := io.Copy(out, &io.LimitedReader{R: body, N: maxBytes + 1})
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if written > maxBytes {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", ErrImageTooLarge
	}
	return path.Join(ImageSubdir, name), nil
}

// RemoveImage deletes a stored image; missing files are ignored.
func RemoveImage(mediaDir, rel string) {
	if rel == "" {
		return
	}
	if err := os.Remove(filepath.Join(mediaDir, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
		Sugar.Warnf("remove image %s: %v", rel, err)
	}
}
