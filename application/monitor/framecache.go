package monitor

import (
	"bytes"
	"image"
	"sync"

	"github.com/corona10/goimagehash"

	"smartbuyer-go/domain/countdown"
)

// frameCache remembers the last recognized frame so an identical frame
// can skip OCR. The difference hash is a quick reject; a reading is only
// reused when the pixels match exactly.
type frameCache struct {
	mu          sync.Mutex
	maxDistance int
	lastHash    *goimagehash.ImageHash
	lastFrame   *image.Gray
	lastReading countdown.Reading
}

func newFrameCache(maxDistance int) *frameCache {
	return &frameCache{maxDistance: maxDistance}
}

// lookup returns the cached reading when img matches the previous frame.
// The computed hash is returned for a later store.
func (c *frameCache) lookup(img *image.Gray) (countdown.Reading, *goimagehash.ImageHash, bool) {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return countdown.Reading{}, nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastHash == nil || c.lastFrame == nil {
		return countdown.Reading{}, hash, false
	}
	dist, err := c.lastHash.Distance(hash)
	if err != nil || dist > c.maxDistance {
		return countdown.Reading{}, hash, false
	}
	if !sameGray(c.lastFrame, img) {
		return countdown.Reading{}, hash, false
	}
	return c.lastReading, hash, true
}

// store records the reading for frame. Unrecognized frames are not
// cached so every miss is re-read.
func (c *frameCache) store(hash *goimagehash.ImageHash, frame *image.Gray, reading countdown.Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hash == nil || frame == nil || !reading.Recognized {
		c.lastHash = nil
		c.lastFrame = nil
		return
	}
	c.lastHash = hash
	c.lastFrame = frame
	c.lastReading = reading
}

func (c *frameCache) reset() {
	c.mu.Lock()
	c.lastHash = nil
	c.lastFrame = nil
	c.lastReading = countdown.Reading{}
	c.mu.Unlock()
}

func sameGray(a, b *image.Gray) bool {
	return a.Rect == b.Rect && a.Stride == b.Stride && bytes.Equal(a.Pix, b.Pix)
}
