// Package media renders lazily loaded, responsive images.
package media

import (
	"fmt"
	"net/url"
	"strings"
)

// Loading mirrors the img loading attribute.
type Loading string

const (
	Lazy  Loading = "lazy"
	Eager Loading = "eager"
)

// DefaultPlaceholder is a 1x1 light grey SVG shown until a lazy image
// scrolls into view.
const DefaultPlaceholder = `data:image/svg+xml,%3Csvg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 1 1"%3E%3Crect fill="%23f3f4f6" width="1" height="1"/%3E%3C/svg%3E`

// Widths are the responsive sizes the optimizer produces.
var Widths = []uint{800, 1200, 1600}

// Props are the attributes of one rendered image.
type Props struct {
	Src         string
	Alt         string
	Class       string
	Width       int
	Height      int
	Loading     Loading
	Placeholder string
	SrcSet      string
	Sizes       string
}

// Option tweaks Props.
type Option func(*Props)

func WithClass(class string) Option { return func(p *Props) { p.Class = class } }
func WithLoading(l Loading) Option { return func(p *Props) { p.Loading = l } }
func WithPlaceholder(src string) Option { return func(p *Props) { p.Placeholder = src } }
func WithSizes(sizes string) Option { return func(p *Props) { p.Sizes = sizes } }
func WithDimensions(w, h int) Option { return func(p *Props) { p.Width, p.Height = w, h } }

// Image builds props for src. Images served from /images/ get a srcset
// over Widths.
func Image(src, alt string, opts ...Option) Props {
	p := Props{
		Src:         src,
		Alt:         alt,
		Loading:     Lazy,
		Placeholder: DefaultPlaceholder,
	}
	for _, opt := range opts {
		opt(&p)
	}
	if p.Loading != Eager {
		p.Loading = Lazy
	}
	if strings.HasPrefix(src, "/images/") && !strings.Contains(src, "?") {
		sets := make([]string, 0, len(Widths))
		for _, w := range Widths {
			sets = append(sets, fmt.Sprintf("%s %dw", SizedSrc(src, w), w))
		}
		p.SrcSet = strings.Join(sets, ", ")
		if p.Sizes == "" {
			p.Sizes = "(max-width: 768px) 100vw, 50vw"
		}
	}
	return p
}

// InitialSrc is what the img src starts as: the real source for eager
// images, the placeholder otherwise.
func (p Props) InitialSrc() string {
	if p.Loading == Eager {
		return p.Src
	}
	return p.Placeholder
}

// IsLazy reports whether the client should defer loading.
func (p Props) IsLazy() bool {
	return p.Loading != Eager
}

// Decoding is always async so decoding never blocks rendering.
func (p Props) Decoding() string {
	return "async"
}

// SizedSrc returns src requesting a given width.
func SizedSrc(src string, width uint) string {
	return src + "?w=" + url.QueryEscape(fmt.Sprint(width))
}
