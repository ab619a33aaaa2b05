// Package imaging fetches round images and turns them into the RGB buffers
// the pixelation engine samples from.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/DoyleJ11/pixeliz-backend/internal/engine"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedLocator = errors.New("unsupported image locator")
	ErrImageTooLarge      = errors.New("image too large")
)

const (
	DefaultMaxSide  = 1024
	DefaultMaxBytes = 20 << 20
	// DefaultMaxPixels caps the decoded canvas, since compressed size says
	// little about it.
	DefaultMaxPixels = 40_000_000
	DefaultTimeout  = 15 * time.Second
)

type Options struct {
	// MaxSide bounds the longest edge; larger images are scaled down.
	MaxSide   int
	MaxBytes  int64
	MaxPixels int64
	Timeout   time.Duration
	Client    *http.Client
	Logger    *zap.Logger
}

type Decoder struct {
	client    *http.Client
	maxSide   int
	maxBytes  int64
	maxPixels int64
	log       *zap.Logger
}

func NewDecoder(opts Options) *Decoder {
	if opts.MaxSide <= 0 {
		opts.MaxSide = DefaultMaxSide
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Decoder{
		client:    opts.Client,
		maxSide:   opts.MaxSide,
		maxBytes:  opts.MaxBytes,
		maxPixels: opts.MaxPixels,
		log:       opts.Logger.With(zap.String("component", "imaging")),
	}
}

// Decode accepts http(s) URLs, file:// URLs and plain file paths.
func (d *Decoder) Decode(ctx context.Context, locator string) (*engine.NativeImage, error) {
	rc, err := d.open(ctx, locator)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	body := io.LimitReader(rc, d.maxBytes)

	// Check dimensions from the header before allocating the canvas, then
	// replay the consumed header bytes into the full decode.
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(body, &head))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", locator, err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > d.maxPixels {
		return nil, fmt.Errorf("%w: %s is %dx%d", ErrImageTooLarge, locator, cfg.Width, cfg.Height)
	}

	src, format, err := image.Decode(io.MultiReader(&head, body))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", locator, err)
	}
	img := d.toRGB(src)
	d.log.Debug("image decoded",
		zap.String("image", locator),
		zap.String("format", format),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
	)
	return img, nil
}

func (d *Decoder) open(ctx context.Context, locator string) (io.ReadCloser, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, fmt.Errorf("%w: empty", ErrUnsupportedLocator)
	}

	u, err := url.Parse(locator)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// no scheme, or a windows drive letter
		return openFile(locator)
	}

	switch u.Scheme {
	case "http", "https":
		return d.fetch(ctx, locator)
	case "file":
		return openFile(u.Path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocator, u.Scheme)
	}
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return f, nil
}

func (d *Decoder) fetch(ctx context.Context, locator string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch image: status code %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// toRGB scales src down if needed and drops the alpha channel without
// compositing, keeping the straight (non-premultiplied) color.
func (d *Decoder) toRGB(src image.Image) *engine.NativeImage {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if longest := max(w, h); longest > d.maxSide {
		w = max(1, w*d.maxSide/longest)
		h = max(1, h*d.maxSide/longest)
		scaled := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, b, draw.Src, nil)
		src, b = scaled, scaled.Bounds()
	}

	out := &engine.NativeImage{Width: w, Height: h, Channels: 3, Pix: make([]byte, w*h*3)}
	for y := range h {
		for x := range w {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := (y*w + x) * 3
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = c.R, c.G, c.B
		}
	}
	return out
}
