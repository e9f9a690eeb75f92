package media

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"golang.org/x/image/draw"
)

// ImageCamera serves frames from an image file. The file is re-read on every
// frame so another process can keep it updated; the last good frame is
// served when a read fails mid-write.
type ImageCamera struct {
	path   string
	width  int
	height int

	mu   sync.Mutex
	last image.Image
}

func OpenImageCamera(path string, width, height int) (*ImageCamera, error) {
	c := &ImageCamera{path: path, width: width, height: height}
	img, err := c.read()
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("camera frame %s: unsupported resolution %dx%d", path, b.Dx(), b.Dy())
	}
	c.last = img
	return c, nil
}

func (c *ImageCamera) Frame() (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, err := c.read()
	if err != nil {
		if c.last != nil {
			return c.last, nil
		}
		return nil, err
	}
	c.last = img
	return img, nil
}

func (c *ImageCamera) Close() {}

func (c *ImageCamera) read() (image.Image, error) {
	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("camera frame %s: device not found", c.path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("camera frame %s: permission denied", c.path)
		}
		return nil, fmt.Errorf("open camera frame: %w", err)
	}
	defer func() { _ = f.Close() }()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("camera frame %s: unsupported format: %w", c.path, err)
	}
	return scale(src, c.width, c.height), nil
}

// scale fits src inside width x height keeping its aspect ratio.
func scale(src image.Image, width, height int) image.Image {
	b := src.Bounds()
	if width <= 0 || height <= 0 || (b.Dx() <= width && b.Dy() <= height) {
		return src
	}
	w, h := width, b.Dy()*width/b.Dx()
	if h > height {
		w, h = b.Dx()*height/b.Dy(), height
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
