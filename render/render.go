// Package render draws the signature card and the error card as PNGs.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"time"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"
	"ipsign.app/models"
)

// BackgroundProvider prepares a canvas-sized background surface.
type BackgroundProvider interface {
	Prepare(width, height int) (image.Image, error)
}

// Renderer produces the composited signature card from an already
// resolved record. All data acquisition happens before Render is called.
type Renderer struct {
	background BackgroundProvider
	icons      *IconCache
	fontPath   string
	boldPath   string
}

func NewRenderer(background BackgroundProvider, icons *IconCache, fontPath, boldPath string) *Renderer {
	return &Renderer{
		background: background,
		icons:      icons,
		fontPath:   fontPath,
		boldPath:   boldPath,
	}
}

// baseWidth/baseHeight define the reference layout; other sizes scale
// proportionally from it.
const (
	baseWidth  = 752.0
	baseHeight = 423.0
)

const valueColor = "#87cefa"

// Render draws the card at exactly width x height and returns PNG bytes.
func (r *Renderer) Render(record *models.SignatureRecord, width, height int) ([]byte, error) {
	dc := gg.NewContext(width, height)
	w, h := float64(width), float64(height)
	s := math.Min(w/baseWidth, h/baseHeight)

	r.drawBackground(dc, width, height)
	r.drawTexture(dc, w, h)

	pad := 25 * s
	lineHeight := 35 * s

	// content panel
	dc.SetRGBA(0, 0, 0, 0.2)
	dc.DrawRoundedRectangle(pad, pad, w-2*pad, h-2*pad, 10*s)
	dc.Fill()

	// title and separator
	y := pad + 35*s
	r.setFace(dc, r.boldPath, 36*s)
	dc.SetColor(color.White)
	dc.DrawStringAnchored("IP SIGNATURE", w/2, y, 0.5, 0)
	dc.SetRGBA(1, 1, 1, 0.8)
	dc.SetLineWidth(2 * s)
	dc.DrawLine(pad+15*s, y+15*s, w-pad-15*s, y+15*s)
	dc.Stroke()

	leftX := pad + 25*s
	rightX := w/2 + 50*s

	// network section
	y += 65 * s
	r.setFace(dc, r.boldPath, 24*s)
	dc.SetColor(color.White)
	dc.DrawString("网络信息", pad+15*s, y)

	r.setFace(dc, r.fontPath, 20*s)
	y += lineHeight
	r.drawLabelValue(dc, "IP 地址: ", record.IP, leftX, y)
	r.drawLabelValue(dc, "操作系统: ", record.Client.OS, rightX, y)
	y += lineHeight
	r.drawLabelValue(dc, "地理位置: ", record.Location, leftX, y)
	r.drawLabelValue(dc, "浏览器: ", record.Client.Browser, rightX, y)
	y += lineHeight
	r.drawLabelValue(dc, "当地时间: ", record.Time, leftX, y)

	// weather section
	y += 45 * s
	r.setFace(dc, r.boldPath, 24*s)
	dc.SetColor(color.White)
	dc.DrawString("天气信息", pad+15*s, y)

	r.drawWeatherIcon(dc, record, w-pad-65*s, y+10*s, s)

	r.setFace(dc, r.fontPath, 20*s)
	y += lineHeight
	r.drawLabelValue(dc, "天气状况: ", record.Weather.Summary.Description, leftX, y)
	y += lineHeight
	temps := fmt.Sprintf("温度: %.1f°C   体感温度: %.1f°C   湿度: %d%%",
		record.Weather.Temperature, record.Weather.FeelsLike, record.Weather.Humidity)
	dc.SetColor(color.White)
	dc.DrawString(temps, leftX, y)

	// quote
	r.setFace(dc, r.fontPath, 16*s)
	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawStringAnchored(fmt.Sprintf("『 %s 』", record.Quote), w/2, h-35*s, 0.5, 0)

	// watermark
	r.setFace(dc, r.fontPath, 14*s)
	dc.SetRGBA(1, 1, 1, 0.6)
	dc.DrawString(copyrightLabel(), 10*s, h-8*s)
	dc.DrawStringAnchored("IP 签名服务器", w-10*s, h-8*s, 1, 0)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode signature image: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBackground paints the prepared background surface, or a gradient
// when the background provider is unavailable.
func (r *Renderer) drawBackground(dc *gg.Context, width, height int) {
	if r.background != nil {
		img, err := r.background.Prepare(width, height)
		if err == nil {
			dc.DrawImage(img, 0, 0)
			return
		}
		slog.Error("background unavailable, using gradient", "error", err)
	}

	w, h := float64(width), float64(height)
	gradient := gg.NewLinearGradient(0, 0, w, h)
	gradient.AddColorStop(0, color.RGBA{R: 0x2c, G: 0x3e, B: 0x50, A: 0xff})
	gradient.AddColorStop(0.5, color.RGBA{R: 0x34, G: 0x98, B: 0xdb, A: 0xff})
	gradient.AddColorStop(1, color.RGBA{R: 0x29, G: 0x80, B: 0xb9, A: 0xff})
	dc.SetFillStyle(gradient)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
}

// drawTexture overlays faint scanlines.
func (r *Renderer) drawTexture(dc *gg.Context, w, h float64) {
	dc.SetRGBA(1, 1, 1, 0.03)
	for y := 0.0; y < h; y += 3 {
		dc.DrawRectangle(0, y, w, 1)
		dc.Fill()
	}
}

func (r *Renderer) drawLabelValue(dc *gg.Context, label, value string, x, y float64) {
	dc.SetColor(color.White)
	dc.DrawString(label, x, y)
	labelWidth, _ := dc.MeasureString(label)
	dc.SetHexColor(valueColor)
	dc.DrawString(value, x+labelWidth, y)
}

func (r *Renderer) drawWeatherIcon(dc *gg.Context, record *models.SignatureRecord, cx, cy, s float64) {
	if r.icons == nil {
		return
	}
	icon, err := r.icons.Fetch(record.Weather.Summary.Icon)
	if err != nil {
		slog.Warn("weather icon unavailable", "icon", record.Weather.Summary.Icon, "error", err)
		return
	}

	glow := gg.NewRadialGradient(cx, cy, 0, cx, cy, 40*s)
	glow.AddColorStop(0, color.RGBA{R: 255, G: 255, B: 255, A: 76})
	glow.AddColorStop(1, color.RGBA{R: 255, G: 255, B: 255, A: 0})
	dc.SetFillStyle(glow)
	dc.DrawCircle(cx, cy, 40*s)
	dc.Fill()

	size := int(70 * s)
	if size < 1 {
		size = 1
	}
	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), icon, icon.Bounds(), xdraw.Over, nil)
	dc.DrawImageAnchored(scaled, int(cx), int(cy), 0.5, 0.5)

	r.setFace(dc, r.boldPath, 18*s)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(record.Weather.Summary.Main, cx, cy+50*s, 0.5, 0)
}

// setFace selects the configured font at the given size, degrading to the
// built-in bitmap face when no usable font file is available.
func (r *Renderer) setFace(dc *gg.Context, path string, points float64) {
	if path != "" {
		if err := dc.LoadFontFace(path, points); err == nil {
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

func copyrightLabel() string {
	const startYear = 2025
	year := time.Now().Year()
	if year > startYear {
		return fmt.Sprintf("© %d-%d IP Sign", startYear, year)
	}
	return fmt.Sprintf("© %d IP Sign", startYear)
}

// ErrorImage renders the fixed-size red-bordered error card. It is used
// on every unrecoverable failure so the client still receives an image.
func (r *Renderer) ErrorImage(message string) []byte {
	const width, height = 600, 200
	dc := gg.NewContext(width, height)

	dc.SetHexColor("#ffcccc")
	dc.Clear()

	dc.SetHexColor("#ff0000")
	dc.SetLineWidth(2)
	dc.DrawRectangle(10, 10, width-20, height-20)
	dc.Stroke()

	r.setFace(dc, r.boldPath, 24)
	dc.SetHexColor("#990000")
	dc.DrawStringAnchored("签名生成错误", width/2, 60, 0.5, 0)

	r.setFace(dc, r.fontPath, 18)
	dc.SetHexColor("#660000")
	dc.DrawStringAnchored(message, width/2, 110, 0.5, 0)

	r.setFace(dc, r.fontPath, 14)
	dc.DrawStringAnchored("请检查服务器日志获取详细信息", width/2, 150, 0.5, 0)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		slog.Error("encode error image", "error", err)
		return nil
	}
	return buf.Bytes()
}
