package services

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sistema-vacunacion/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newMediaService(t *testing.T) (*MediaService, *memoryAuditor, string) {
	t.Helper()
	dir := t.TempDir()
	auditor := &memoryAuditor{}
	svc, err := NewMediaService(config.UploadConfig{
		Dir:           dir,
		MaxFileBytes:  1024,
		MaxFiles:      2,
		PublicBaseURL: "http://localhost:3000",
	}, auditor)
	require.NoError(t, err)
	return svc, auditor, dir
}

// fileHeader builds an upload the way a multipart request would deliver it
func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("images", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["images"][0]
}

func TestUploadListAndDeleteCarousel(t *testing.T) {
	svc, auditor, dir := newMediaService(t)

	urls, err := svc.UploadCarousel([]*multipart.FileHeader{
		fileHeader(t, "portada.PNG", pngHeader),
		fileHeader(t, "logo.svg", []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`)),
	}, "Admin")
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.True(t, strings.HasPrefix(urls[0], "http://localhost:3000/carousel/"))
	assert.True(t, strings.HasSuffix(urls[0], ".png"))

	listed, err := svc.ListCarousel()
	require.NoError(t, err)
	assert.ElementsMatch(t, urls, listed)

	require.NoError(t, svc.DeleteCarousel(urls[0], "Admin"))
	assert.ErrorIs(t, svc.DeleteCarousel(urls[0], "Admin"), ErrImageNotFound)

	entries, err := os.ReadDir(filepath.Join(dir, CarouselFolder))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Len(t, auditor.calls(), 2)
}

func TestUploadCarouselRejectsWholeBatch(t *testing.T) {
	svc, auditor, dir := newMediaService(t)

	_, err := svc.UploadCarousel(nil, "Admin")
	assert.ErrorIs(t, err, ErrNoFiles)

	three := []*multipart.FileHeader{
		fileHeader(t, "a.png", pngHeader), fileHeader(t, "b.png", pngHeader), fileHeader(t, "c.png", pngHeader),
	}
	_, err = svc.UploadCarousel(three, "Admin")
	assert.ErrorIs(t, err, ErrTooManyFiles)

	_, err = svc.UploadCarousel([]*multipart.FileHeader{
		fileHeader(t, "ok.png", pngHeader),
		fileHeader(t, "notas.txt", []byte("hola")),
	}, "Admin")
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = svc.UploadCarousel([]*multipart.FileHeader{fileHeader(t, "falso.png", []byte("not an image at all"))}, "Admin")
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = svc.UploadCarousel([]*multipart.FileHeader{fileHeader(t, "grande.png", append(pngHeader, make([]byte, 2048)...))}, "Admin")
	assert.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(filepath.Join(dir, CarouselFolder))
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, auditor.calls())
}

func TestUploadAboutUsImage(t *testing.T) {
	svc, _, dir := newMediaService(t)

	url, err := svc.UploadAboutUsImage(fileHeader(t, "equipo.png", pngHeader), "Admin")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:3000/about-us/"))

	_, err = os.Stat(filepath.Join(dir, AboutUsFolder, filepath.Base(url)))
	assert.NoError(t, err)

	_, err = svc.UploadAboutUsImage(nil, "Admin")
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestFileNameFromURL(t *testing.T) {
	assert.Equal(t, "a.png", fileNameFromURL("http://localhost:3000/carousel/a.png"))
	assert.Equal(t, "a.png", fileNameFromURL("a.png"))
	assert.Equal(t, "passwd", fileNameFromURL("../../etc/passwd"))
	assert.Equal(t, "", fileNameFromURL(""))
}
