package connection

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Resource is what flows along a connection.
type Resource interface {
	Kind() Kind
	String() string
}

// Buffer is an off-screen frame buffer.
type Buffer struct {
	ID string
	// Scale is the buffer size relative to the display resolution.
	Scale  float32
	Format gputypes.TextureFormat
}

func (Buffer) Kind() Kind { return KindSingleBuffer }
func (b Buffer) String() string {
	return b.ID
}

// BufferPair is a pair of interchangeable buffers used for ping-pong passes:
// a pass reads the primary and writes the secondary, then hands the pair on
// swapped so the next pass reads what was just written.
type BufferPair struct {
	Primary   Buffer
	Secondary Buffer
}

func (BufferPair) Kind() Kind { return KindBufferPair }
func (p BufferPair) String() string {
	return fmt.Sprintf("%s/%s", p.Primary.ID, p.Secondary.ID)
}

// Swapped returns the pair with primary and secondary exchanged.
func (p BufferPair) Swapped() BufferPair {
	return BufferPair{Primary: p.Secondary, Secondary: p.Primary}
}

// Texture is a 2D texture produced by a node, e.g. a blurred image.
type Texture struct {
	ID     string
	Format gputypes.TextureFormat
	Size   gputypes.Extent3D
}

func (Texture) Kind() Kind { return KindTexture2D }
func (t Texture) String() string {
	return t.ID
}
