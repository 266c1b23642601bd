package canvas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/xor-gate/goexif2/exif"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrUnsupportedFormat is returned for files that are not a known image type.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Extensions lists the file extensions the loader accepts.
var Extensions = []string{".gif", ".jpg", ".jpeg", ".png", ".webp", ".bmp"}

// Source is a decoded image together with where it came from.
type Source struct {
	Path   string
	Name   string
	Format string
	Size   int64
	Image  image.Image
}

// IsImagePath reports whether path has one of the accepted extensions.
func IsImagePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads and decodes the image at path.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	img, format, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return &Source{
		Path:   path,
		Name:   filepath.Base(path),
		Format: format,
		Size:   int64(len(data)),
		Image:  img,
	}, nil
}

// Decode decodes an image and applies its EXIF orientation, if any.
func Decode(data []byte) (image.Image, string, error) {
	switch ct := http.DetectContentType(data); ct {
	case "image/gif", "image/jpeg", "image/png", "image/webp", "image/bmp":
	default:
		return nil, "", fmt.Errorf("cannot handle %s: %w", ct, ErrUnsupportedFormat)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	if format == "jpeg" {
		img = Orient(img, exifOrientation(data))
	}
	return img, format, nil
}

// exifOrientation returns the EXIF orientation tag, or 1 when absent.
func exifOrientation(data []byte) int {
	ex, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := ex.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

// Orient transforms img so that it displays upright for the given EXIF
// orientation value. Unknown values leave the image untouched.
func Orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
