// Package background resolves, caches and composites the card background.
package background

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"ipsign.app/errors"
)

var supportedFormats = []string{"jpg", "jpeg", "png", "gif"}

// Provider downloads the configured background once per process and keeps
// it in a content-addressed file cache, or in memory when the cache
// directory is not writable.
type Provider struct {
	imageURL     string
	format       string
	imageDir     string
	defaultAsset string
	httpClient   *http.Client

	mu         sync.Mutex
	memoryOnly bool
	image      image.Image
}

// New validates the configured source and returns a provider. An
// unsupported URL extension is a configuration error.
func New(imageURL, cacheDir, assetsDir string) (*Provider, error) {
	p := &Provider{
		imageURL:     imageURL,
		imageDir:     filepath.Join(cacheDir, "images"),
		defaultAsset: filepath.Join(assetsDir, "images", "default.png"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	if imageURL != "" {
		format := formatFromURL(imageURL)
		if !isSupportedFormat(format) {
			return nil, errors.NewConfigurationError(
				fmt.Sprintf("unsupported background image format %q, supported: %s",
					format, strings.Join(supportedFormats, ", ")), nil)
		}
		p.format = format
	}

	return p, nil
}

// Init probes the cache directory and resolves the background eagerly.
// A failure is returned for logging but must not prevent server startup;
// later renders fall back to a gradient.
func (p *Provider) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.probeWritable() {
		slog.Warn("background cache directory not writable, using in-memory cache only", "dir", p.imageDir)
		p.memoryOnly = true
	}

	img, err := p.resolveLocked()
	if err != nil {
		return err
	}
	p.image = img
	slog.Info("background image ready")
	return nil
}

// probeWritable checks filesystem write access once via a write/delete probe.
func (p *Provider) probeWritable() bool {
	if err := os.MkdirAll(p.imageDir, 0755); err != nil {
		return false
	}
	probe := filepath.Join(p.imageDir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return false
	}
	return os.Remove(probe) == nil
}

// Prepare returns a surface of the requested size with the background
// scaled to cover, centered, and dimmed by a translucent overlay.
func (p *Provider) Prepare(width, height int) (image.Image, error) {
	img, err := p.resolve()
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	srcW, srcH := float64(bounds.Dx()), float64(bounds.Dy())
	if srcW <= 0 || srcH <= 0 {
		return nil, fmt.Errorf("background image has empty bounds")
	}

	scale := math.Max(float64(width)/srcW, float64(height)/srcH)
	scaledW := int(srcW*scale + 0.5)
	scaledH := int(srcH*scale + 0.5)

	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), img, bounds, xdraw.Src, nil)

	dc := gg.NewContext(width, height)
	dc.DrawImageAnchored(scaled, width/2, height/2, 0.5, 0.5)

	dc.SetRGBA(0, 0, 0, 0.3)
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()

	return dc.Image(), nil
}

// resolve returns the decoded background, fetching it if necessary.
func (p *Provider) resolve() (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.image != nil {
		return p.image, nil
	}
	img, err := p.resolveLocked()
	if err != nil {
		return nil, err
	}
	p.image = img
	return img, nil
}

func (p *Provider) resolveLocked() (image.Image, error) {
	if p.imageURL == "" {
		slog.Info("no background image URL configured, using bundled default", "path", p.defaultAsset)
		return decodeFile(p.defaultAsset)
	}

	cachePath := p.cachePath()

	if !p.memoryOnly {
		if img, err := decodeFile(cachePath); err == nil {
			slog.Info("using cached background image", "path", cachePath)
			return img, nil
		}
	}

	slog.Info("downloading background image", "url", p.imageURL)
	raw, err := p.download()
	if err != nil {
		return nil, fmt.Errorf("download background image: %w", err)
	}

	if !p.memoryOnly {
		if err := os.WriteFile(cachePath, raw, 0644); err != nil {
			slog.Warn("write background image cache file", "path", cachePath, "error", err)
		}
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode background image: %w", err)
	}
	return img, nil
}

// cachePath is the content-addressed file name for the configured URL.
func (p *Provider) cachePath() string {
	return filepath.Join(p.imageDir, fmt.Sprintf("%x.%s", md5.Sum([]byte(p.imageURL)), p.format))
}

func (p *Provider) download() ([]byte, error) {
	resp, err := p.httpClient.Get(p.imageURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d error", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("downloaded file is not an image (content-type %q)", contentType)
	}
	format := strings.TrimPrefix(contentType, "image/")
	if !isSupportedFormat(format) {
		return nil, fmt.Errorf("unsupported image format %q, supported: %s", format, strings.Join(supportedFormats, ", "))
	}

	return io.ReadAll(resp.Body)
}

func decodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("close image file", "error", closeErr)
		}
	}()

	img, _, err := image.Decode(file)
	return img, err
}

// formatFromURL extracts the lowercase file extension of the URL's last
// path segment, dropping any query string.
func formatFromURL(url string) string {
	base := url
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		return strings.ToLower(base[i+1:])
	}
	return ""
}

func isSupportedFormat(format string) bool {
	for _, supported := range supportedFormats {
		if format == supported {
			return true
		}
	}
	return false
}
