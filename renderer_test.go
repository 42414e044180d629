package cutborder_test

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	"github.com/gogpu/cutborder"
	"github.com/gogpu/cutborder/domtest"
)

const marker = "js-border-polygon"

// bordered adds a marked 200x100 element with a 4px red border and 10px cuts.
func bordered(doc *domtest.Document, id string) *domtest.Element {
	el := doc.NewElement(id, 200, 100, marker)
	el.Style.Set(cutborder.PropBorderWidth, "4px")
	el.Style.Set(cutborder.PropBorderColor, "red")
	el.Style.Set(cutborder.PropCutSize, "10px")
	return el
}

func activate(t *testing.T, r *cutborder.Renderer) int {
	t.Helper()
	n, err := r.Activate()
	if err != nil {
		t.Fatalf("Activate() error: %v", err)
	}
	t.Cleanup(func() { _ = r.Release() })
	return n
}

func surface(t *testing.T, el *domtest.Element) *domtest.Surface {
	t.Helper()
	ss := el.Surfaces()
	if len(ss) != 1 {
		t.Fatalf("element %q has %d surfaces, want 1", el.ID, len(ss))
	}
	if ss[0].Class != cutborder.DefaultSurfaceClass {
		t.Fatalf("surface class = %q, want %q", ss[0].Class, cutborder.DefaultSurfaceClass)
	}
	return ss[0]
}

func TestActivateDrawsEveryTarget(t *testing.T) {
	doc := domtest.NewDocument()
	a := bordered(doc, "a")
	b := bordered(doc, "b")
	plain := doc.NewElement("plain", 50, 50, "card")

	r := cutborder.New(doc)
	if n := activate(t, r); n != 2 {
		t.Fatalf("Activate() = %d, want 2", n)
	}

	for _, el := range []*domtest.Element{a, b} {
		if !r.Observed(el) {
			t.Errorf("element %q not observed", el.ID)
		}
		if s := surface(t, el); s.Presents != 1 {
			t.Errorf("element %q presented %d times, want 1", el.ID, s.Presents)
		}
	}
	if r.Observed(plain) {
		t.Error("unmarked element is observed")
	}
	if len(plain.Surfaces()) != 0 {
		t.Error("unmarked element got a surface")
	}
	if got := len(r.Elements()); got != 2 {
		t.Errorf("Elements() has %d entries, want 2", got)
	}
}

func TestActivateNoTargets(t *testing.T) {
	doc := domtest.NewDocument()
	doc.NewElement("plain", 50, 50, "card")

	r := cutborder.New(doc)
	if n := activate(t, r); n != 0 {
		t.Errorf("Activate() = %d, want 0", n)
	}
}

func TestActivateTwice(t *testing.T) {
	doc := domtest.NewDocument()
	bordered(doc, "a")

	r := cutborder.New(doc)
	activate(t, r)
	if _, err := r.Activate(); !errors.Is(err, cutborder.ErrAlreadyActive) {
		t.Errorf("second Activate() error = %v, want ErrAlreadyActive", err)
	}
}

func TestStrokedPixels(t *testing.T) {
	doc := domtest.NewDocument()
	el := bordered(doc, "a")

	activate(t, cutborder.New(doc))
	img := surface(t, el).Image()
	if img == nil {
		t.Fatal("nothing presented")
	}
	if got := img.Bounds().Size(); got.X != 200 || got.Y != 100 {
		t.Fatalf("image size = %v, want 200x100", got)
	}

	red := color.RGBA{R: 255, A: 255}
	if got := img.RGBAAt(100, 0); got != red {
		t.Errorf("top edge = %v, want %v", got, red)
	}
	if got := img.RGBAAt(199, 50); got != red {
		t.Errorf("right edge = %v, want %v", got, red)
	}
	if got := img.RGBAAt(100, 50); got.A != 0 {
		t.Errorf("interior = %v, want transparent", got)
	}
	if got := img.RGBAAt(1, 1); got.A != 0 {
		t.Errorf("cut corner = %v, want transparent", got)
	}
}

func TestInnerModeKeepsStrokeInside(t *testing.T) {
	doc := domtest.NewDocument()
	center := bordered(doc, "center")
	inner := bordered(doc, "inner")
	inner.Style.Set(cutborder.PropBorderType, "inner")

	activate(t, cutborder.New(doc))

	// Pixel row 3 is outside a centered 4px stroke but inside an inset one.
	if got := surface(t, center).Image().RGBAAt(100, 3); got.A != 0 {
		t.Errorf("center mode row 3 = %v, want transparent", got)
	}
	if got := surface(t, inner).Image().RGBAAt(100, 3); got.A == 0 {
		t.Error("inner mode row 3 is transparent, want stroked")
	}
}

func TestSurfaceReusedAcrossDraws(t *testing.T) {
	doc := domtest.NewDocument()
	el := bordered(doc, "a")

	r := cutborder.New(doc)
	activate(t, r)
	first := r.Canvas(el)

	doc.Resize(el, 300, 120)
	doc.Resize(el, 250, 80)

	s := surface(t, el)
	if s.Presents != 3 {
		t.Errorf("Presents = %d, want 3", s.Presents)
	}
	if s.DisplayWidth != 250 || s.DisplayHeight != 80 {
		t.Errorf("display size = %vx%v, want 250x80", s.DisplayWidth, s.DisplayHeight)
	}
	if r.Canvas(el) != first {
		t.Error("canvas was replaced on resize")
	}
}

func TestExistingSurfaceAdopted(t *testing.T) {
	doc := domtest.NewDocument()
	el := bordered(doc, "a")
	pre := el.PrependSurface(cutborder.DefaultSurfaceClass)

	activate(t, cutborder.New(doc))

	if s := surface(t, el); cutborder.Surface(s) != pre {
		t.Error("renderer injected a second surface instead of adopting the existing one")
	}
}

func TestResizeRedrawsOnlyThatElement(t *testing.T) {
	doc := domtest.NewDocument()
	a := bordered(doc, "a")
	b := bordered(doc, "b")

	activate(t, cutborder.New(doc))
	doc.Resize(a, 220, 100)

	if got := surface(t, a).Presents; got != 2 {
		t.Errorf("a presented %d times, want 2", got)
	}
	if got := surface(t, b).Presents; got != 1 {
		t.Errorf("b presented %d times, want 1", got)
	}
}

func TestRedrawIsIdempotent(t *testing.T) {
	doc := domtest.NewDocument()
	el := bordered(doc, "a")
	el.Style.Set(cutborder.PropCutSize, "5px 15px 25px 35px")

	r := cutborder.New(doc)
	activate(t, r)
	before := surface(t, el).Image()

	if err := r.Draw(el); err != nil {
		t.Fatalf("Draw() error: %v", err)
	}
	after := surface(t, el).Image()

	if !bytes.Equal(before.Pix, after.Pix) {
		t.Error("redrawing unchanged state changed the pixels")
	}
}

func TestStyleReadAtDrawTime(t *testing.T) {
	doc := domtest.NewDocument()
	el := bordered(doc, "a")

	r := cutborder.New(doc)
	activate(t, r)
	before := surface(t, el).Image()

	el.Style.Set(cutborder.PropBorderColor, "blue")
	if got := surface(t, el).Image().RGBAAt(100, 0); got != before.RGBAAt(100, 0) {
		t.Fatal("style change repainted without a draw")
	}

	if err := r.Draw(el); err != nil {
		t.Fatalf("Draw() error: %v", err)
	}
	if got, want := surface(t, el).Image().RGBAAt(100, 0), (color.RGBA{B: 255, A: 255}); got != want {
		t.Errorf("top edge after redraw = %v, want %v", got, want)
	}
}

func TestHighDPI(t *testing.T) {
	doc := domtest.NewDocument()
	doc.Ratio = 2
	el := doc.NewElement("a", 100, 50, marker)
	el.Style.Set(cutborder.PropBorderWidth, "2px")

	activate(t, cutborder.New(doc))

	s := surface(t, el)
	if s.BackingWidth != 200 || s.BackingHeight != 100 {
		t.Errorf("backing size = %dx%d, want 200x100", s.BackingWidth, s.BackingHeight)
	}
	if s.DisplayWidth != 100 || s.DisplayHeight != 50 {
		t.Errorf("display size = %vx%v, want 100x50", s.DisplayWidth, s.DisplayHeight)
	}
	// A 2px stroke centered on the top edge covers two device rows.
	img := s.Image()
	if got := img.RGBAAt(100, 1); got.A == 0 {
		t.Error("device row 1 is transparent, want stroked")
	}
	if got := img.RGBAAt(100, 3); got.A != 0 {
		t.Errorf("device row 3 = %v, want transparent", got)
	}
}

func TestZeroSizeElement(t *testing.T) {
	doc := domtest.NewDocument()
	el := bordered(doc, "a")
	el.SetSize(0, 0)

	r := cutborder.New(doc)
	activate(t, r)

	s := surface(t, el)
	if s.BackingWidth != 0 || s.BackingHeight != 0 {
		t.Errorf("backing size = %dx%d, want 0x0", s.BackingWidth, s.BackingHeight)
	}
	if s.Presents != 1 {
		t.Errorf("Presents = %d, want 1", s.Presents)
	}

	doc.Resize(el, 40, 40)
	if s.BackingWidth != 40 {
		t.Errorf("backing width after grow = %d, want 40", s.BackingWidth)
	}
}

func TestPixelLengthsNeverProbe(t *testing.T) {
	doc := domtest.NewDocument()
	el := bordered(doc, "a")
	el.Style.Set(cutborder.PropCutSize, "10% 4px")

	activate(t, cutborder.New(doc))
	if doc.Probes != 0 {
		t.Errorf("Probes = %d, want 0", doc.Probes)
	}
}

func TestRelativeLengthsUseDocumentMeasurer(t *testing.T) {
	doc := domtest.NewDocument()
	el := bordered(doc, "a")
	el.FontSize = 20
	el.Style.Set(cutborder.PropBorderWidth, "0.2em")
	el.Style.Set(cutborder.PropCutSize, "1rem")

	r := cutborder.New(doc)
	activate(t, r)

	if doc.Probes != 2 {
		t.Errorf("Probes = %d, want 2", doc.Probes)
	}
	cfg := cutborder.ParseConfig(el, cutborder.DefaultProperties(), doc)
	if cfg.Width != 4 {
		t.Errorf("Width = %v, want 4", cfg.Width)
	}
	if cfg.Cuts != (cutborder.Cuts{16, 16, 16, 16}) {
		t.Errorf("Cuts = %+v, want all 16", cfg.Cuts)
	}
}

func TestWithMeasurer(t *testing.T) {
	doc := domtest.NewDocument()
	el := bordered(doc, "a")
	el.Style.Set(cutborder.PropBorderWidth, "1em")

	var tokens []string
	m := cutborder.MeasurerFunc(func(_ cutborder.Element, token string) (float64, error) {
		tokens = append(tokens, token)
		return 3, nil
	})

	activate(t, cutborder.New(doc, cutborder.WithMeasurer(m)))

	if doc.Probes != 0 {
		t.Errorf("document measurer used %d times, want 0", doc.Probes)
	}
	if len(tokens) != 1 || tokens[0] != "1em" {
		t.Errorf("measured tokens = %v, want [1em]", tokens)
	}
}

func TestWithSelectorAndSurfaceClass(t *testing.T) {
	doc := domtest.NewDocument()
	el := doc.NewElement("frame", 80, 80)
	el.Attrs["data-frame"] = ""
	bordered(doc, "default")

	r := cutborder.New(doc,
		cutborder.WithSelector("[data-frame]"),
		cutborder.WithSurfaceClass("frame-canvas"),
	)
	if n := activate(t, r); n != 1 {
		t.Fatalf("Activate() = %d, want 1", n)
	}
	ss := el.Surfaces()
	if len(ss) != 1 || ss[0].Class != "frame-canvas" {
		t.Errorf("surfaces = %+v, want one frame-canvas", ss)
	}
}

func TestUnknownColorFallsBackToBlack(t *testing.T) {
	doc := domtest.NewDocument()
	el := bordered(doc, "a")
	el.Style.Set(cutborder.PropBorderColor, "not-a-color")

	activate(t, cutborder.New(doc))

	if got, want := surface(t, el).Image().RGBAAt(100, 0), (color.RGBA{A: 255}); got != want {
		t.Errorf("top edge = %v, want %v", got, want)
	}
}

func TestDrawNil(t *testing.T) {
	r := cutborder.New(domtest.NewDocument())
	if err := r.Draw(nil); !errors.Is(err, cutborder.ErrNilElement) {
		t.Errorf("Draw(nil) error = %v, want ErrNilElement", err)
	}
}

func TestDrawUnmarkedElement(t *testing.T) {
	doc := domtest.NewDocument()
	bordered(doc, "a")
	plain := doc.NewElement("plain", 50, 50, "card")
	plain.Style.Set(cutborder.PropBorderWidth, "3px")

	r := cutborder.New(doc)
	if err := r.Draw(plain); !errors.Is(err, cutborder.ErrNotTarget) {
		t.Errorf("Draw() before Activate error = %v, want ErrNotTarget", err)
	}

	activate(t, r)
	if err := r.Draw(plain); !errors.Is(err, cutborder.ErrNotTarget) {
		t.Errorf("Draw(unmarked) error = %v, want ErrNotTarget", err)
	}
	if r.IsTarget(plain) {
		t.Error("IsTarget(unmarked) = true")
	}
	if len(plain.Surfaces()) != 0 {
		t.Error("drawing an unmarked element injected a surface")
	}
	if r.Canvas(plain) != nil {
		t.Error("unmarked element has a canvas")
	}
}

func TestRelease(t *testing.T) {
	doc := domtest.NewDocument()
	a := bordered(doc, "a")
	b := bordered(doc, "b")

	r := cutborder.New(doc)
	if _, err := r.Activate(); err != nil {
		t.Fatalf("Activate() error: %v", err)
	}
	sa, sb := surface(t, a), surface(t, b)

	if err := r.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}

	for _, el := range []*domtest.Element{a, b} {
		if len(el.Surfaces()) != 0 {
			t.Errorf("element %q still has surfaces", el.ID)
		}
		if r.IsTarget(el) {
			t.Errorf("element %q is still a target", el.ID)
		}
		if r.Observed(el) {
			t.Errorf("element %q still observed", el.ID)
		}
	}
	if !sa.Removed() || !sb.Removed() {
		t.Error("surfaces not removed")
	}

	doc.Resize(a, 10, 10)
	if sa.Presents != 1 {
		t.Errorf("released renderer redrew: Presents = %d", sa.Presents)
	}

	if err := r.Draw(a); !errors.Is(err, cutborder.ErrReleased) {
		t.Errorf("Draw after Release error = %v, want ErrReleased", err)
	}
	if _, err := r.Activate(); !errors.Is(err, cutborder.ErrReleased) {
		t.Errorf("Activate after Release error = %v, want ErrReleased", err)
	}
	if err := r.Release(); err != nil {
		t.Errorf("second Release() error = %v, want nil", err)
	}
}
