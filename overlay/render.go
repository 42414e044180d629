// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package overlay

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
)

// Rendering errors.
var (
	// ErrNilDrawer is returned when RenderTo is given a nil drawer.
	ErrNilDrawer = errors.New("overlay: nil TextureDrawer")

	// ErrNilCreator is returned when the drawer has no TextureCreator.
	ErrNilCreator = errors.New("overlay: drawer has no TextureCreator")
)

// RenderTo draws the canvas at the drawer's origin.
//
// The canvas is flushed first; a pending texture is turned into a GPU
// texture through dc.TextureCreator(). Empty canvases draw nothing.
func (c *Canvas) RenderTo(dc gpucontext.TextureDrawer) error {
	return c.RenderToPosition(dc, 0, 0)
}

// RenderToPosition draws the canvas with its top-left corner at (x, y)
// device pixels.
func (c *Canvas) RenderToPosition(dc gpucontext.TextureDrawer, x, y float32) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if dc == nil {
		return ErrNilDrawer
	}

	tex, err := c.Flush()
	if err != nil {
		return err
	}
	if tex == nil {
		return nil
	}

	if pending, ok := tex.(*pendingTexture); ok {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrNilCreator
		}
		realTex, err := creator.NewTextureFromRGBA(pending.width, pending.height, pending.data)
		if err != nil {
			return fmt.Errorf("overlay: NewTextureFromRGBA failed: %w", err)
		}

		// gg pixel data is premultiplied alpha.
		if pt, ok := realTex.(interface{ SetPremultiplied(bool) }); ok {
			pt.SetPremultiplied(true)
		}

		c.texture = realTex
		tex = realTex

		// Texture creation waits for the GPU, so the replaced texture is idle.
		c.destroyOld()
	}

	return dc.DrawTexture(tex, x, y)
}
