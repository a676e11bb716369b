package blob

import (
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
	"github.com/nfnt/resize"
)

// Preview is the deterministic metadata fs.stat exposes for an Image-kind
// blob, per SPEC_FULL.md §4.3: dimensions plus a stable hash of a
// grayscale thumbnail, never the raw pixel bytes.
type Preview struct {
	Width     int
	Height    int
	AsciiHash string
}

const thumbSize = 8

// BuildPreview produces the deterministic preview of img: a
// downscaled 8x8 grayscale thumbnail, hashed. Uses nfnt/resize for the
// downscale and anthonynsimon/bild/effect for the grayscale pass, per
// SPEC_FULL.md's Image fileKind contract.
func BuildPreview(img image.Image) Preview {
	b := img.Bounds()

	thumb := resize.Resize(thumbSize, thumbSize, img, resize.NearestNeighbor)
	gray := effect.Grayscale(thumb)

	h := sha256.New()
	gb := gray.Bounds()
	for y := gb.Min.Y; y < gb.Max.Y; y++ {
		for x := gb.Min.X; x < gb.Max.X; x++ {
			r, _, _, _ := gray.At(x, y).RGBA()
			h.Write([]byte{byte(r >> 8)})
		}
	}

	return Preview{
		Width:     b.Dx(),
		Height:    b.Dy(),
		AsciiHash: hex.EncodeToString(h.Sum(nil))[:16],
	}
}

// PutImage stores image bytes already decoded as img, attaching its
// deterministic preview for later fs.stat lookups.
func (s *Store) PutImage(data []byte, img image.Image) ContentID {
	id := s.Put(data)
	preview := BuildPreview(img)

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.preview = &preview
	}
	return id
}

// ImagePreview returns the stored preview metadata for an Image-kind blob, if any.
func (s *Store) ImagePreview(id ContentID) (Preview, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || e.preview == nil {
		return Preview{}, false
	}
	return *e.preview, true
}

// SynthesizeImage deterministically renders a small synthetic "image"
// from a seed. The image is a diagonal-band pattern (bands run along
// x+y) whose colors are derived purely from the seed, never from
// wall-clock or RNG. The world builder does not call it: blueprint Image
// files keep the bytes they declare.
func SynthesizeImage(seed uint64, width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			band := uint64(x+y) ^ seed
			v := byte(band * 2654435761 >> 24)
			img.Set(x, y, color.RGBA{R: v, G: byte(seed >> 8), B: byte(seed), A: 255})
		}
	}

	return img
}
