package main

import (
	"errors"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/gogpu/gpucontext"
	"golang.org/x/image/draw"

	"github.com/gogpu/cutborder/overlay"
)

// sheetGap is the margin around and between elements on a contact sheet, in
// CSS pixels.
const sheetGap = 8

var (
	errForeignTexture   = errors.New("borderdemo: texture was not created by this sheet")
	errDestroyedTexture = errors.New("borderdemo: texture destroyed")
)

// sheet composes element borders top to bottom into one image. It is a
// software gpucontext.TextureDrawer: canvases upload and draw their pixels
// through the texture interfaces exactly as they would on a GPU host, and
// textures survive between compositions so unchanged sizes update in place.
type sheet struct {
	img     *image.RGBA
	created int // textures created over the sheet's lifetime
}

var (
	_ gpucontext.TextureDrawer  = (*sheet)(nil)
	_ gpucontext.TextureCreator = (*sheet)(nil)
	_ gpucontext.TextureUpdater = (*sheetTexture)(nil)
)

// compose lays the canvases out top to bottom at the given device pixel
// ratio and renders each onto a fresh sheet. Empty canvases are skipped.
func (s *sheet) compose(canvases []*overlay.Canvas, dpr float64) error {
	canvases = slices.DeleteFunc(slices.Clone(canvases), (*overlay.Canvas).Empty)

	gap := int(math.Ceil(sheetGap * dpr))
	width, height := 0, gap
	for _, c := range canvases {
		pw, ph := c.PixelSize()
		width = max(width, pw)
		height += ph + gap
	}
	s.img = image.NewRGBA(image.Rect(0, 0, width+2*gap, height))

	y := gap
	for _, c := range canvases {
		if err := c.RenderToPosition(s, float32(gap), float32(y)); err != nil {
			return err
		}
		_, ph := c.PixelSize()
		y += ph + gap
	}
	return nil
}

// Image returns the last composed sheet.
func (s *sheet) Image() *image.RGBA {
	return s.img
}

func (s *sheet) TextureCreator() gpucontext.TextureCreator { return s }

func (s *sheet) NewTextureFromRGBA(width, height int, data []byte) (gpucontext.Texture, error) {
	if width <= 0 || height <= 0 || len(data) != width*height*4 {
		return nil, fmt.Errorf("borderdemo: %d bytes of texture data for %dx%d", len(data), width, height)
	}
	t := &sheetTexture{
		width:  width,
		height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}
	copy(t.img.Pix, data)
	s.created++
	return t, nil
}

// DrawTexture blends tex over the sheet with its top-left corner at (x, y).
func (s *sheet) DrawTexture(tex gpucontext.Texture, x, y float32) error {
	t, ok := tex.(*sheetTexture)
	if !ok {
		return errForeignTexture
	}
	if t.img == nil {
		return errDestroyedTexture
	}
	if s.img == nil {
		return nil
	}

	var src image.Image = t.img
	if !t.premultiplied {
		src = &image.NRGBA{Pix: t.img.Pix, Stride: t.img.Stride, Rect: t.img.Rect}
	}
	r := t.img.Bounds().Add(image.Pt(int(x), int(y)))
	draw.Draw(s.img, r, src, image.Point{}, draw.Over)
	return nil
}

// sheetTexture is the pixel store behind a sheet texture.
type sheetTexture struct {
	width, height int
	img           *image.RGBA // nil once destroyed
	premultiplied bool
}

func (t *sheetTexture) Width() int  { return t.width }
func (t *sheetTexture) Height() int { return t.height }

// SetPremultiplied records whether the uploaded data has premultiplied alpha.
func (t *sheetTexture) SetPremultiplied(v bool) { t.premultiplied = v }

func (t *sheetTexture) UpdateData(data []byte) error {
	if t.img == nil {
		return errDestroyedTexture
	}
	if len(data) != len(t.img.Pix) {
		return fmt.Errorf("borderdemo: %d bytes of texture data for %dx%d", len(data), t.width, t.height)
	}
	copy(t.img.Pix, data)
	return nil
}

// Destroy drops the pixels. It is called by the canvas that owns the texture.
func (t *sheetTexture) Destroy() { t.img = nil }
