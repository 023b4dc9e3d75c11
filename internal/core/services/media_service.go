package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sistema-vacunacion/internal/config"

	"github.com/google/uuid"
)

// Public folders served as static files
const (
	CarouselFolder = "carousel"
	AboutUsFolder  = "about-us"
)

// Media errors
var (
	ErrNoFiles          = errors.New("no files were uploaded")
	ErrTooManyFiles     = errors.New("too many files in one upload")
	ErrFileTooLarge     = errors.New("file exceeds the maximum allowed size")
	ErrUnsupportedImage = errors.New("only jpg, jpeg, png, gif, webp and svg images are allowed")
	ErrImageNotFound    = errors.New("image not found")
)

var allowedImageExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".svg": true,
}

// MediaService stores uploaded images on the local filesystem
type MediaService struct {
	root     string
	maxBytes int64
	maxFiles int
	baseURL  string
	auditor  Auditor
}

// NewMediaService creates the media service and its folders
func NewMediaService(cfg config.UploadConfig, auditor Auditor) (*MediaService, error) {
	for _, folder := range []string{CarouselFolder, AboutUsFolder} {
		if err := os.MkdirAll(filepath.Join(cfg.Dir, folder), 0o755); err != nil {
			return nil, fmt.Errorf("create upload folder %s: %w", folder, err)
		}
	}

	return &MediaService{
		root:     cfg.Dir,
		maxBytes: cfg.MaxFileBytes,
		maxFiles: cfg.MaxFiles,
		baseURL:  cfg.PublicBaseURL,
		auditor:  auditor,
	}, nil
}

// MaxFiles is the per-request upload limit
func (s *MediaService) MaxFiles() int {
	return s.maxFiles
}

// MaxFileBytes is the per-file size limit
func (s *MediaService) MaxFileBytes() int64 {
	return s.maxBytes
}

// ListCarousel returns the public URLs of every carousel image, sorted by name
func (s *MediaService) ListCarousel() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, CarouselFolder))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !allowedImageExt[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	urls := make([]string, 0, len(names))
	for _, name := range names {
		urls = append(urls, s.publicURL(CarouselFolder, name))
	}
	return urls, nil
}

// UploadCarousel validates every file first and then stores them all
func (s *MediaService) UploadCarousel(files []*multipart.FileHeader, actor string) ([]string, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > s.maxFiles {
		return nil, ErrTooManyFiles
	}
	for _, f := range files {
		if err := s.validate(f); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Filename, err)
		}
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		name, err := s.store(CarouselFolder, f)
		if err != nil {
			return nil, err
		}
		urls = append(urls, s.publicURL(CarouselFolder, name))
	}

	s.auditor.Record(fmt.Sprintf("Uploaded %d carousel image(s)", len(urls)), actor, nil)
	return urls, nil
}

// DeleteCarousel removes a carousel image given its URL or file name
func (s *MediaService) DeleteCarousel(imageURL, actor string) error {
	name := fileNameFromURL(imageURL)
	if name == "" {
		return ErrImageNotFound
	}

	path := filepath.Join(s.root, CarouselFolder, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrImageNotFound
		}
		return err
	}
	if err := os.Remove(path); err != nil {
		return err
	}

	s.auditor.Record(fmt.Sprintf("Deleted carousel image %s", name), actor, nil)
	return nil
}

// UploadAboutUsImage stores one image for the about-us page and returns its URL
func (s *MediaService) UploadAboutUsImage(file *multipart.FileHeader, actor string) (string, error) {
	if file == nil {
		return "", ErrNoFiles
	}
	if err := s.validate(file); err != nil {
		return "", err
	}

	name, err := s.store(AboutUsFolder, file)
	if err != nil {
		return "", err
	}

	s.auditor.Record(fmt.Sprintf("Uploaded about-us image %s", name), actor, nil)
	return s.publicURL(AboutUsFolder, name), nil
}

// validate checks size, extension and sniffed content type
func (s *MediaService) validate(f *multipart.FileHeader) error {
	if f.Size > s.maxBytes {
		return ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(f.Filename))
	if !allowedImageExt[ext] {
		return ErrUnsupportedImage
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}

	if !sniffedAsImage(ext, http.DetectContentType(head[:n])) {
		return ErrUnsupportedImage
	}
	return nil
}

func sniffedAsImage(ext, contentType string) bool {
	if ext == ".svg" {
		// svg is xml text to the sniffer
		return strings.HasPrefix(contentType, "text/xml") ||
			strings.HasPrefix(contentType, "text/plain") ||
			strings.HasPrefix(contentType, "image/svg+xml")
	}
	return strings.HasPrefix(contentType, "image/")
}

// store copies the upload under a random name and returns that name
func (s *MediaService) store(folder string, f *multipart.FileHeader) (string, error) {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(f.Filename))

	src, err := f.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.root, folder, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	log.Printf("✅ Stored image %s/%s", folder, name)
	return name, nil
}

func (s *MediaService) publicURL(folder, name string) string {
	return s.baseURL + "/" + folder + "/" + name
}

// fileNameFromURL keeps only the last path element so deletes stay inside the folder
func fileNameFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		raw = u.Path
	}
	name := filepath.Base(filepath.Clean("/" + raw))
	if name == "/" || name == "." || name == ".." {
		return ""
	}
	return name
}
