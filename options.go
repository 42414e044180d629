package cutborder

import "github.com/gogpu/gpucontext"

// Default opt-in marker and surface class.
const (
	DefaultSelector     = ".js-border-polygon"
	DefaultSurfaceClass = "c-canvas"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	r := cutborder.New(doc,
//	    cutborder.WithSelector("[data-cut-border]"),
//	    cutborder.WithSurfaceClass("cut-border-canvas"),
//	)
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	selector     string
	surfaceClass string
	props        Properties
	measurer     Measurer
	provider     gpucontext.DeviceProvider
}

// defaultOptions returns the default renderer options.
func defaultOptions() options {
	return options{
		selector:     DefaultSelector,
		surfaceClass: DefaultSurfaceClass,
		props:        DefaultProperties(),
		measurer:     nil, // falls back to the Document
	}
}

// WithSelector sets the selector that marks elements opting into the border.
func WithSelector(selector string) Option {
	return func(o *options) {
		if selector != "" {
			o.selector = selector
		}
	}
}

// WithSurfaceClass sets the class used to tag the injected canvas, so
// repeated draws find and reuse it.
func WithSurfaceClass(class string) Option {
	return func(o *options) {
		if class != "" {
			o.surfaceClass = class
		}
	}
}

// WithProperties overrides the custom property names read from computed style.
// Empty fields keep their defaults.
func WithProperties(p Properties) Option {
	return func(o *options) {
		o.props = p.withDefaults()
	}
}

// WithMeasurer injects the service used to resolve lengths that are neither
// px nor %. Without it, the Document measures with a probe node.
//
// Tests use this to substitute a fake measurer:
//
//	r := cutborder.New(doc, cutborder.WithMeasurer(fixedMeasurer(8)))
func WithMeasurer(m Measurer) Option {
	return func(o *options) {
		o.measurer = m
	}
}

// WithDeviceProvider shares a GPU device with gg's accelerator for every
// overlay canvas the renderer creates.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}
