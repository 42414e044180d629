package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/cutborder"
	"github.com/gogpu/cutborder/domtest"
	"github.com/gogpu/cutborder/internal/scenefile"
	"github.com/gogpu/cutborder/overlay"
)

func newRenderCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "render SCENE",
		Short: "Render every element of a scene to <out>/<id>.png",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(args[0], g.session())
			if err != nil {
				return err
			}
			n := len(s.renderer.Elements())
			if err := s.close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rendered %d elements to %s\n", n, g.out)
			return nil
		},
	}
}

// sessionConfig holds the output settings of a session.
type sessionConfig struct {
	out   string  // directory for <id>.png
	dpr   float64 // overrides the scene's when > 0
	sheet string  // contact sheet path, empty for none
}

// session owns one activated renderer over a scene document. It is used
// from a single goroutine.
type session struct {
	path string
	cfg  sessionConfig

	scene    *scenefile.Scene
	doc      *domtest.Document
	renderer *cutborder.Renderer
	sheet    *sheet // nil without --sheet
}

// openSession loads the scene, activates a renderer on it and writes the
// initial images.
func openSession(path string, cfg sessionConfig) (*session, error) {
	s := &session{path: path, cfg: cfg}
	if cfg.sheet != "" {
		s.sheet = &sheet{}
	}
	scene, err := s.load()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.out, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if err := s.build(scene); err != nil {
		_ = s.close()
		return nil, err
	}
	return s, nil
}

func (s *session) load() (*scenefile.Scene, error) {
	scene, err := scenefile.Load(s.path)
	if err != nil {
		return nil, err
	}
	if s.cfg.dpr > 0 {
		scene.DPR = s.cfg.dpr
	}
	return scene, nil
}

// build replaces the document and renderer and writes every image.
func (s *session) build(scene *scenefile.Scene) error {
	if s.renderer != nil {
		if err := s.renderer.Release(); err != nil {
			cutborder.Logger().Warn("borderdemo: release failed", "err", err)
		}
	}
	s.scene = scene
	s.doc = scene.Document()
	s.renderer = cutborder.New(s.doc)
	if _, err := s.renderer.Activate(); err != nil {
		return err
	}
	return errors.Join(s.writeAll(), s.writeSheet())
}

// reload re-reads the scene. Resized elements are notified like a browser
// resize, restyled elements are redrawn explicitly and structural changes
// rebuild the document. It returns the ids whose images were rewritten.
func (s *session) reload() ([]string, error) {
	next, err := s.load()
	if err != nil {
		return nil, err
	}

	delta := scenefile.Diff(s.scene, next)
	switch {
	case delta.Empty():
		s.scene = next
		return nil, nil
	case delta.Structural:
		cutborder.Logger().Info("borderdemo: scene structure changed, rebuilding", "path", s.path)
		if err := s.build(next); err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(next.Elements))
		for _, el := range next.Elements {
			ids = append(ids, el.ID)
		}
		return ids, nil
	}

	if err := scenefile.Apply(s.doc, next); err != nil {
		return nil, err
	}
	s.scene = next

	// Elements without the marker are in the scene but not bordered.
	resized := s.targets(delta.Resized)
	restyled := s.targets(delta.Restyled)
	s.doc.Notify(resized...)

	var errs []error
	for _, el := range restyled {
		if err := s.renderer.Draw(el); err != nil {
			errs = append(errs, fmt.Errorf("draw %s: %w", el.ID, err))
		}
	}

	els := slices.Concat(resized, restyled)
	ids := make([]string, 0, len(els))
	for _, el := range els {
		ids = append(ids, el.ID)
	}
	if len(els) > 0 {
		errs = append(errs, s.writeElements(els), s.writeSheet())
	}
	return ids, errors.Join(errs...)
}

// targets returns the elements of ids that the renderer borders.
func (s *session) targets(ids []string) []*domtest.Element {
	var els []*domtest.Element
	for _, id := range ids {
		if el := s.doc.Element(id); el != nil && s.renderer.IsTarget(el) {
			els = append(els, el)
		}
	}
	return els
}

func (s *session) writeAll() error {
	targets := s.renderer.Elements()
	els := make([]*domtest.Element, 0, len(targets))
	for _, el := range targets {
		els = append(els, el.(*domtest.Element))
	}
	return s.writeElements(els)
}

// writeElements encodes the images in parallel. Presented images are
// copies, so encoding does not touch the renderer.
func (s *session) writeElements(els []*domtest.Element) error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, el := range els {
		g.Go(func() error { return s.write(el) })
	}
	return g.Wait()
}

// write saves el's last presented image as <out>/<id>.png. Elements without
// pixels are skipped.
func (s *session) write(el *domtest.Element) error {
	surf, ok := el.Surface(cutborder.DefaultSurfaceClass).(*domtest.Surface)
	if !ok || surf.Image() == nil || surf.Image().Bounds().Empty() {
		cutborder.Logger().Debug("borderdemo: nothing to write", "id", el.ID)
		return nil
	}

	return writePNG(filepath.Join(s.cfg.out, el.ID+".png"), surf.Image())
}

// writeSheet composes every canvas onto the contact sheet and saves it.
func (s *session) writeSheet() error {
	if s.sheet == nil {
		return nil
	}
	var canvases []*overlay.Canvas
	for _, el := range s.renderer.Elements() {
		if c := s.renderer.Canvas(el); c != nil {
			canvases = append(canvases, c)
		}
	}
	if err := s.sheet.compose(canvases, s.doc.DevicePixelRatio()); err != nil {
		return fmt.Errorf("compose sheet: %w", err)
	}
	return writePNG(s.cfg.sheet, s.sheet.Image())
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	cutborder.Logger().Debug("borderdemo: wrote", "path", path)
	return nil
}

func (s *session) close() error {
	if s.renderer == nil {
		return nil
	}
	err := s.renderer.Release()
	s.renderer = nil
	return err
}
