package wgpuengine

import (
	"math"
	"math/bits"

	"honnef.co/go/wgpu"
)

type bufferProperties struct {
	size   uint64
	usages wgpu.BufferUsage
}

// bufferPool recycles GPU buffers by rounded size class and usage, so scene
// rebuilds of similar size reuse allocations instead of churning the
// device.
type bufferPool struct {
	bufs map[bufferProperties][]*wgpu.Buffer
}

func newBufferPool() *bufferPool {
	return &bufferPool{
		bufs: make(map[bufferProperties][]*wgpu.Buffer),
	}
}

func (pool *bufferPool) get(
	size uint64,
	name string,
	usage wgpu.BufferUsage,
	dev *wgpu.Device,
) *wgpu.Buffer {
	const sizeClassBits = 1

	roundedSize := poolSizeClass(size, sizeClassBits)
	props := bufferProperties{
		size:   roundedSize,
		usages: usage,
	}
	if bufVec, ok := pool.bufs[props]; ok && len(bufVec) > 0 {
		buf := bufVec[len(bufVec)-1]
		pool.bufs[props] = bufVec[:len(bufVec)-1]
		return buf
	}
	return dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name,
		Size:  roundedSize,
		Usage: usage,
	})
}

// put returns a buffer to the pool for reuse. The buffer's size must be the
// rounded size it was created with.
func (pool *bufferPool) put(size uint64, usage wgpu.BufferUsage, buf *wgpu.Buffer) {
	props := bufferProperties{
		size:   poolSizeClass(size, 1),
		usages: usage,
	}
	pool.bufs[props] = append(pool.bufs[props], buf)
}

// drain releases every pooled buffer.
func (pool *bufferPool) drain() {
	for props, bufs := range pool.bufs {
		for _, buf := range bufs {
			buf.Release()
		}
		delete(pool.bufs, props)
	}
}

// poolSizeClass rounds x up, keeping numBits bits of precision below the
// leading bit.
func poolSizeClass(x uint64, numBits uint32) uint64 {
	if x > 1<<numBits {
		a := bits.LeadingZeros64(x - 1)
		b := (x - 1) | (((math.MaxUint64 / 2) >> numBits) >> a)
		return b + 1
	} else {
		return 1 << numBits
	}
}
