// Package engine selects a rendering backend.
package engine

import (
	"honnef.co/go/layview"
	"honnef.co/go/layview/engine/softengine"
	"honnef.co/go/layview/engine/wgpuengine"
	"honnef.co/go/wgpu"
)

// New returns the backend for opts: the CPU rasterizer when UseCPU is set
// or no device is available, the GPU engine otherwise.
func New(dev *wgpu.Device, queue *wgpu.Queue, format wgpu.TextureFormat, opts layview.RendererOptions) layview.Backend {
	if opts.UseCPU || dev == nil {
		return softengine.New()
	}
	return wgpuengine.New(dev, queue, wgpuengine.Options{SurfaceFormat: format})
}
