package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/MohammedGhazal09/portfolio/internal/cache"
	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

var (
	ErrNotFound         = errors.New("image not found")
	ErrBadName          = errors.New("invalid image name")
	ErrUnsupportedWidth = errors.New("unsupported image width")
)

// JPEGQuality is used for resized JPEGs.
const JPEGQuality = 80

// Rendered is an encoded image ready to serve.
type Rendered struct {
	Data        []byte
	ContentType string
}

// Optimizer serves images from a directory, resized to one of Widths.
type Optimizer struct {
	dir    string
	cache  *cache.Memory[Rendered]
	logger *zap.Logger
}

// NewOptimizer creates an optimizer over dir. Resized images are cached for ttl.
func NewOptimizer(dir string, ttl time.Duration, logger *zap.Logger) *Optimizer {
	return &Optimizer{
		dir:    dir,
		cache:  cache.NewMemory[Rendered](ttl, 10*time.Minute),
		logger: logger,
	}
}

// Path returns the on-disk path for name, rejecting anything that is not a
// plain file name inside dir.
func (o *Optimizer) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrBadName
	}
	return filepath.Join(o.dir, name), nil
}

// Render returns name resized to width. Images narrower than width are
// served unchanged; only JPEG and PNG are resized.
func (o *Optimizer) Render(name string, width uint) (Rendered, error) {
	if !slices.Contains(Widths, width) {
		return Rendered{}, fmt.Errorf("%w: %d", ErrUnsupportedWidth, width)
	}
	path, err := o.Path(name)
	if err != nil {
		return Rendered{}, err
	}

	key := fmt.Sprintf("%s@%d", name, width)
	if r, ok := o.cache.Get(key); ok {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Rendered{}, ErrNotFound
		}
		return Rendered{}, err
	}

	r, err := Optimize(data, width)
	if err != nil {
		return Rendered{}, fmt.Errorf("optimize %s: %w", name, err)
	}
	o.cache.Set(key, r)
	o.logger.Debug("image resized", zap.String("name", name), zap.Uint("width", width), zap.Int("bytes", len(r.Data)))
	return r, nil
}

// Close stops the cache sweep.
func (o *Optimizer) Close() {
	o.cache.Stop()
}

// Optimize resizes an encoded image to maxWidth, keeping the aspect ratio.
func Optimize(data []byte, maxWidth uint) (Rendered, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Rendered{}, err
	}
	contentType := "image/" + format

	if uint(img.Bounds().Dx()) <= maxWidth {
		return Rendered{Data: data, ContentType: contentType}, nil
	}

	m := resize.Resize(maxWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, m, &jpeg.Options{Quality: JPEGQuality})
	case "png":
		err = png.Encode(&buf, m)
	default:
		return Rendered{Data: data, ContentType: contentType}, nil
	}
	if err != nil {
		return Rendered{}, err
	}

	return Rendered{Data: buf.Bytes(), ContentType: contentType}, nil
}
