package background

import (
	"bytes"
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ipsign.app/errors"
)

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeDefaultAsset(t *testing.T, assetsDir string) {
	t.Helper()
	dir := filepath.Join(assetsDir, "images")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.png"), encodeTestPNG(t, 40, 30), 0644))
}

func TestNew(t *testing.T) {
	t.Run("SupportedFormats", func(t *testing.T) {
		for _, url := range []string{
			"https://example.com/bg.jpg",
			"https://example.com/bg.jpeg",
			"https://example.com/bg.png",
			"https://example.com/bg.gif",
			"https://example.com/bg.PNG",
			"https://example.com/bg.png?size=large",
		} {
			_, err := New(url, t.TempDir(), "assets")
			assert.NoError(t, err, url)
		}
	})

	t.Run("UnsupportedFormatIsConfigurationError", func(t *testing.T) {
		provider, err := New("https://example.com/bg.webp", t.TempDir(), "assets")

		require.Error(t, err)
		assert.Nil(t, provider)

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperrors.ConfigurationError, appErr.Type)
	})

	t.Run("NoURLIsValid", func(t *testing.T) {
		_, err := New("", t.TempDir(), "assets")
		assert.NoError(t, err)
	})
}

func TestProvider_Init(t *testing.T) {
	t.Run("DownloadsAndCachesByContentAddress", func(t *testing.T) {
		requests := 0
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.Header().Set("Content-Type", "image/png")
			_, err := w.Write(encodeTestPNG(t, 40, 30))
			require.NoError(t, err)
		}))
		defer mockServer.Close()

		cacheDir := t.TempDir()
		url := mockServer.URL + "/bg.png"
		provider, err := New(url, cacheDir, "assets")
		require.NoError(t, err)
		require.NoError(t, provider.Init())
		assert.Equal(t, 1, requests)

		expected := filepath.Join(cacheDir, "images", fmt.Sprintf("%x.png", md5.Sum([]byte(url))))
		assert.FileExists(t, expected)

		// a fresh provider for the same URL reuses the file cache
		reused, err := New(url, cacheDir, "assets")
		require.NoError(t, err)
		require.NoError(t, reused.Init())
		assert.Equal(t, 1, requests)
	})

	t.Run("NonImageContentTypeIsRejected", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, err := w.Write([]byte("<html></html>"))
			require.NoError(t, err)
		}))
		defer mockServer.Close()

		provider, err := New(mockServer.URL+"/bg.png", t.TempDir(), "assets")
		require.NoError(t, err)
		assert.Error(t, provider.Init())
	})

	t.Run("NoURLUsesBundledDefault", func(t *testing.T) {
		assetsDir := t.TempDir()
		writeDefaultAsset(t, assetsDir)

		provider, err := New("", t.TempDir(), assetsDir)
		require.NoError(t, err)
		assert.NoError(t, provider.Init())
	})

	t.Run("MissingDefaultAssetFailsInit", func(t *testing.T) {
		provider, err := New("", t.TempDir(), t.TempDir())
		require.NoError(t, err)
		assert.Error(t, provider.Init())
	})
}

func TestProvider_Prepare(t *testing.T) {
	t.Run("SurfaceMatchesRequestedSize", func(t *testing.T) {
		assetsDir := t.TempDir()
		writeDefaultAsset(t, assetsDir)

		provider, err := New("", t.TempDir(), assetsDir)
		require.NoError(t, err)
		require.NoError(t, provider.Init())

		surface, err := provider.Prepare(200, 120)
		require.NoError(t, err)
		assert.Equal(t, 200, surface.Bounds().Dx())
		assert.Equal(t, 120, surface.Bounds().Dy())
	})

	t.Run("UnresolvableBackgroundReturnsError", func(t *testing.T) {
		provider, err := New("", t.TempDir(), t.TempDir())
		require.NoError(t, err)

		surface, err := provider.Prepare(200, 120)
		assert.Error(t, err)
		assert.Nil(t, surface)
	})
}

func TestFormatFromURL(t *testing.T) {
	assert.Equal(t, "png", formatFromURL("https://example.com/bg.png"))
	assert.Equal(t, "jpg", formatFromURL("https://example.com/a/b/c.JPG"))
	assert.Equal(t, "png", formatFromURL("https://example.com/bg.png?w=800&h=600"))
	assert.Equal(t, "", formatFromURL("https://example.com/no-extension"))
}
