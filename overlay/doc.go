// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package overlay manages the high-DPI drawing surface that sits on top of a
// bordered element.
//
// A Canvas wraps a gg.Context whose pixel buffer is sized to the element's
// CSS size multiplied by the device pixel ratio. The drawing transform is
// scaled by the same ratio, so callers always draw in CSS pixels:
//
//	c := overlay.New()
//	defer c.Close()
//
//	_ = c.Configure(100, 50, 2) // 200x100 backing pixels
//	_ = c.Draw(func(dc *gg.Context) error {
//	    dc.DrawRectangle(0, 0, 100, 50) // CSS pixels
//	    return dc.Stroke()
//	})
//
// # Presenting
//
// The pixels are available as an image (Image) for hosts that blit them
// themselves, or can be uploaded to a GPU texture and drawn through a
// gpucontext.TextureDrawer (RenderTo). The texture is created lazily on the
// first render and updated in place while the size is unchanged.
//
// # Empty canvases
//
// An element with zero width or height gives a canvas with no pixels. Draw
// is then a no-op, Image returns an empty image and RenderTo draws nothing.
//
// # Thread Safety
//
// Canvas is NOT safe for concurrent use.
package overlay
