// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package overlay

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gpucontext"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("overlay: canvas is closed")

	// ErrInvalidDimensions is returned when a CSS size is negative or not finite.
	ErrInvalidDimensions = errors.New("overlay: invalid dimensions")
)

// textureDestroyer matches the Destroy method of GPU textures.
type textureDestroyer interface {
	Destroy()
}

// Option configures a Canvas during creation.
type Option func(*Canvas)

// WithDeviceProvider shares the provider's GPU device with gg's accelerator.
// Sharing is best effort: without a registered accelerator it is a no-op.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(c *Canvas) {
		c.provider = p
	}
}

// Canvas is a drawing surface sized in CSS pixels and backed at device
// resolution.
type Canvas struct {
	ctx      *gg.Context // nil until the first non-empty Configure
	provider gpucontext.DeviceProvider

	texture    gpucontext.Texture // lazily created on first render
	oldTexture gpucontext.Texture // replaced texture awaiting destruction
	dirty      bool               // pixels changed since the last upload
	resized    bool               // texture must be recreated

	cssWidth  float64
	cssHeight float64
	scale     float64
	width     int // backing pixels
	height    int
	closed    bool
}

// New creates an empty Canvas. Call Configure before drawing.
func New(opts ...Option) *Canvas {
	c := &Canvas{scale: 1}
	for _, opt := range opts {
		opt(c)
	}
	if c.provider != nil {
		if err := gg.SetAcceleratorDeviceProvider(c.provider); err != nil {
			// Non-fatal: the accelerator initializes its own device.
			gg.Logger().Debug("overlay: device sharing unavailable", "err", err)
		}
	}
	return c
}

// BackingSize returns the backing store size for a CSS size at the given
// device pixel ratio. Fractional pixels are truncated.
func BackingSize(cssWidth, cssHeight, scale float64) (width, height int) {
	scale = sanitizeScale(scale)
	return int(math.Floor(cssWidth * scale)), int(math.Floor(cssHeight * scale))
}

// sanitizeScale maps non-finite and non-positive ratios to 1.
func sanitizeScale(scale float64) float64 {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return 1
	}
	return scale
}

// Configure sizes the canvas for an element of cssWidth x cssHeight CSS
// pixels at the given device pixel ratio. The backing store is reallocated
// only when the pixel size changes.
func (c *Canvas) Configure(cssWidth, cssHeight, scale float64) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if !validLength(cssWidth) || !validLength(cssHeight) {
		return fmt.Errorf("%w: width=%v, height=%v", ErrInvalidDimensions, cssWidth, cssHeight)
	}

	scale = sanitizeScale(scale)
	pw, ph := BackingSize(cssWidth, cssHeight, scale)

	c.cssWidth = cssWidth
	c.cssHeight = cssHeight
	c.scale = scale

	if pw == c.width && ph == c.height {
		if c.ctx != nil {
			c.ctx.SetTransform(gg.Scale(scale, scale))
		}
		return nil
	}

	c.width = pw
	c.height = ph
	c.resized = true
	c.dirty = true

	if pw == 0 || ph == 0 {
		return nil
	}

	if c.ctx == nil {
		c.ctx = gg.NewContext(pw, ph)
	} else if err := c.ctx.Resize(pw, ph); err != nil {
		return fmt.Errorf("overlay: context resize failed: %w", err)
	}
	c.ctx.SetTransform(gg.Scale(scale, scale))
	return nil
}

func validLength(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Empty reports whether the canvas has no backing pixels.
func (c *Canvas) Empty() bool {
	return c.width == 0 || c.height == 0
}

// PixelSize returns the backing store size in device pixels.
func (c *Canvas) PixelSize() (width, height int) {
	return c.width, c.height
}

// DisplaySize returns the displayed size in CSS pixels.
func (c *Canvas) DisplaySize() (width, height float64) {
	return c.cssWidth, c.cssHeight
}

// Scale returns the device pixel ratio the canvas was configured with.
func (c *Canvas) Scale() float64 {
	return c.scale
}

// Context returns the gg drawing context, or nil if the canvas is empty or
// closed. Prefer Draw, which clears and resets the transform first.
func (c *Canvas) Context() *gg.Context {
	if c.closed || c.Empty() {
		return nil
	}
	return c.ctx
}

// Draw clears the whole canvas, resets the transform to the device pixel
// ratio and calls fn. On an empty canvas fn is not called.
func (c *Canvas) Draw(fn func(dc *gg.Context) error) error {
	if c.closed {
		return ErrCanvasClosed
	}
	c.dirty = true
	if c.Empty() {
		return nil
	}
	c.ctx.ClearPath()
	c.ctx.Clear()
	c.ctx.SetTransform(gg.Scale(c.scale, c.scale))
	return fn(c.ctx)
}

// Image returns a copy of the canvas pixels (premultiplied RGBA).
func (c *Canvas) Image() *image.RGBA {
	if c.closed || c.Empty() {
		return image.NewRGBA(image.Rectangle{})
	}
	if err := c.ctx.FlushGPU(); err != nil {
		// CPU-rendered content is still in the pixmap.
		gg.Logger().Warn("overlay: GPU flush failed", "err", err)
	}
	return c.ctx.ResizeTarget().ToImage()
}

// Flush uploads the canvas content to its GPU texture if dirty and returns
// the texture. The first Flush after creation or a resize returns a pending
// texture that RenderTo turns into a real one. An empty canvas has no
// texture; Flush then returns nil.
func (c *Canvas) Flush() (gpucontext.Texture, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}

	if c.resized {
		// The old texture may still be referenced by in-flight GPU work;
		// RenderTo destroys it after the next texture creation.
		if c.texture != nil {
			c.destroyOld()
			c.oldTexture = c.texture
			c.texture = nil
		}
		c.resized = false
	}

	if c.Empty() {
		c.dirty = false
		return nil, nil
	}

	if !c.dirty && c.texture != nil {
		return c.texture, nil
	}

	data := c.Image().Pix

	if c.texture == nil {
		c.texture = &pendingTexture{width: c.width, height: c.height, data: data}
		c.dirty = false
		return c.texture, nil
	}

	switch tex := c.texture.(type) {
	case *pendingTexture:
		tex.data = data
	case gpucontext.TextureUpdater:
		if err := tex.UpdateData(data); err != nil {
			return nil, fmt.Errorf("overlay: texture update failed: %w", err)
		}
	default:
		// Cannot update in place; recreate on the next render.
		c.oldTexture = c.texture
		c.texture = &pendingTexture{width: c.width, height: c.height, data: data}
	}

	c.dirty = false
	return c.texture, nil
}

// Close releases the pixel buffer and any GPU textures.
// Close is idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	c.destroyOld()
	if d, ok := c.texture.(textureDestroyer); ok {
		d.Destroy()
	}
	c.texture = nil

	if c.ctx != nil {
		_ = c.ctx.Close()
		c.ctx = nil
	}
	c.provider = nil
	return nil
}

func (c *Canvas) destroyOld() {
	if d, ok := c.oldTexture.(textureDestroyer); ok {
		d.Destroy()
	}
	c.oldTexture = nil
}

// pendingTexture holds pixel data until a TextureCreator is available.
type pendingTexture struct {
	width  int
	height int
	data   []byte
}

func (t *pendingTexture) Width() int  { return t.width }
func (t *pendingTexture) Height() int { return t.height }
