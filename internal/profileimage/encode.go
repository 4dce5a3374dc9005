// Package profileimage turns an image file into the base64 body the API stores.
package profileimage

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// DefaultMaxBytes caps the size of a file that will be read.
const DefaultMaxBytes = 5 << 20

var (
	// ErrTooLarge is returned for files above the size limit.
	ErrTooLarge = errors.New("image exceeds size limit")
	// ErrUnsupported is returned for content that is not a png, jpeg, gif or webp image.
	ErrUnsupported = errors.New("file is not a supported image")
	// ErrEmpty is returned for empty files.
	ErrEmpty = errors.New("image file is empty")
)

var allowedMIME = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Image is a read and validated profile image.
type Image struct {
	FileName string
	MIME     string
	Width    int
	Height   int
	Base64   string
}

// Options tune Read.
type Options struct {
	// MaxBytes limits the file size; DefaultMaxBytes when zero.
	MaxBytes int64
	// MaxSide downscales images whose longer side exceeds it, re-encoding the
	// result. Zero keeps the original bytes.
	MaxSide int
}

// ReadFile loads path and encodes it. FileName is the base name of path.
func ReadFile(path string, opts Options) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path), opts)
}

// Read validates the image in r and returns its base64 body.
func Read(r io.Reader, fileName string, opts Options) (Image, error) {
	limit := opts.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	if len(raw) == 0 {
		return Image{}, ErrEmpty
	}
	if int64(len(raw)) > limit {
		return Image{}, ErrTooLarge
	}

	mt := mimetype.Detect(raw)
	if !mimetype.EqualsAny(mt.String(), allowedMIME...) {
		return Image{}, fmt.Errorf("%w: %s", ErrUnsupported, mt.String())
	}

	img, err := decode(raw, mt.String())
	if err != nil {
		return Image{}, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	out := Image{FileName: fileName, MIME: mt.String(), Width: b.Dx(), Height: b.Dy()}

	if opts.MaxSide > 0 && (out.Width > opts.MaxSide || out.Height > opts.MaxSide) {
		scaled := scale(img, opts.MaxSide)
		raw, out.MIME, err = encode(scaled, mt.String())
		if err != nil {
			return Image{}, fmt.Errorf("encode image: %w", err)
		}
		out.Width, out.Height = scaled.Bounds().Dx(), scaled.Bounds().Dy()
		if out.MIME != mt.String() {
			out.FileName = withExtension(fileName, out.MIME)
		}
	}

	out.Base64 = base64.StdEncoding.EncodeToString(raw)
	return out, nil
}

func decode(raw []byte, mime string) (image.Image, error) {
	if mime == "image/webp" {
		return webp.Decode(bytes.NewReader(raw))
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	return img, err
}

func scale(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// encode keeps jpeg and gif sources in their format. Anything else, webp
// included, is written as png since there is no webp encoder.
func encode(img image.Image, sourceMIME string) ([]byte, string, error) {
	var buf bytes.Buffer
	switch sourceMIME {
	case "image/jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	case "image/gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/gif", nil
	}
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/png", nil
}

// withExtension swaps the extension of name for the one matching mime.
func withExtension(name, mime string) string {
	ext := ".png"
	if mt := mimetype.Lookup(mime); mt != nil {
		ext = mt.Extension()
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}
