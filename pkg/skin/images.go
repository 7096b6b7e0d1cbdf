package skin

import (
	"fmt"
	"image"
	_ "image/png" // Register PNG decoder
	"io/fs"
	"path"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/aneko/pkg/drawable"
)

// imageExt is the file extension appended to drawable references.
const imageExt = ".png"

// ImageLoader resolves drawable references ("mati1") to images inside a skin's
// file tree and caches the result, so each image is decoded only once per skin.
//
// Thread Safety Note:
// ImageLoader is NOT thread-safe. It is used from the update loop only.
type ImageLoader struct {
	fsys    fs.FS
	dir     string
	convert func(image.Image) drawable.Image
	cache   map[string]drawable.Image
}

// NewImageLoader creates a loader that reads "<dir>/<ref>.png" from fsys and
// converts decoded images into Ebitengine images.
func NewImageLoader(fsys fs.FS, dir string) *ImageLoader {
	return newImageLoader(fsys, dir, func(img image.Image) drawable.Image {
		return ebiten.NewImageFromImage(img)
	})
}

// newImageLoader allows tests to keep decoded images on the CPU.
func newImageLoader(fsys fs.FS, dir string, convert func(image.Image) drawable.Image) *ImageLoader {
	return &ImageLoader{
		fsys:    fsys,
		dir:     dir,
		convert: convert,
		cache:   make(map[string]drawable.Image),
	}
}

// Image implements drawable.ImageSource.
//
// Returns:
//   - The cached image if the reference was loaded before.
//   - An error if the file does not exist or cannot be decoded.
func (l *ImageLoader) Image(ref string) (drawable.Image, error) {
	if img, ok := l.cache[ref]; ok {
		return img, nil
	}

	name := path.Join(l.dir, ref+imageExt)
	file, err := l.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", name, err)
	}
	defer file.Close()

	decoded, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", name, err)
	}

	img := l.convert(decoded)
	l.cache[ref] = img
	return img, nil
}

// Cached returns the number of images held in the cache.
func (l *ImageLoader) Cached() int {
	return len(l.cache)
}
