// Package wgpuengine is the GPU backend: layer geometry is triangulated
// once, uploaded into vertex and index buffers, and drawn with one indexed
// draw call per visible layer. The view transform lives in a uniform, so
// panning and zooming redraw from cached buffers without re-tessellating.
package wgpuengine

import (
	"errors"

	"honnef.co/go/layview"
	"honnef.co/go/layview/gds"
	"honnef.co/go/layview/internal/xlog"
	"honnef.co/go/layview/lmath"
	"honnef.co/go/safeish"
	"honnef.co/go/wgpu"
)

const shaderSrc = `
		struct Uniforms {
			view: mat4x4<f32>,
			color: vec4<f32>,
		}

		@group(0) @binding(0)
		var<uniform> uniforms: Uniforms;

		@vertex
		fn vs_main(@location(0) pos: vec2<f32>) -> @builtin(position) vec4<f32> {
			return uniforms.view * vec4(pos, 0.0, 1.0);
		}

		@fragment
		fn fs_main() -> @location(0) vec4<f32> {
			return uniforms.color;
		}`

// uniformSize is the byte size of the Uniforms struct: a mat4x4 plus a
// vec4.
const uniformSize = 64 + 16

const (
	vertexUsage  = wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	indexUsage   = wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	uniformUsage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
)

// Options configures the GPU engine.
type Options struct {
	SurfaceFormat wgpu.TextureFormat
}

// gpuBatch is one layer batch materialized on the device.
type gpuBatch struct {
	vertexBuf  *wgpu.Buffer
	indexBuf   *wgpu.Buffer
	uniformBuf *wgpu.Buffer
	bindGroup  *wgpu.BindGroup

	vertexSize uint64
	indexSize  uint64
	indexCount uint32
}

// Engine implements layview.Backend on a wgpu device. SetTarget must point
// it at a texture view before the first Draw.
type Engine struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	opts   Options

	pipeline   *wgpu.RenderPipeline
	bindLayout *wgpu.BindGroupLayout

	pool    *bufferPool
	batches batchSet
	gpu     map[gds.LayerKey]*gpuBatch

	target       *wgpu.TextureView
	targetWidth  int
	targetHeight int

	ready bool
}

var _ layview.Backend = (*Engine)(nil)

func New(dev *wgpu.Device, queue *wgpu.Queue, opts Options) *Engine {
	return &Engine{
		device: dev,
		queue:  queue,
		opts:   opts,
		pool:   newBufferPool(),
		gpu:    make(map[gds.LayerKey]*gpuBatch),
	}
}

// Init compiles the layer pipeline. The shader is compiled exactly once;
// batches are built lazily on the first Draw after a scene change.
func (e *Engine) Init() error {
	if e.device == nil || e.queue == nil {
		return errors.New("wgpuengine: no device")
	}

	shader := e.device.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  "layer shaders",
		Source: wgpu.ShaderSourceWGSL(shaderSrc),
	})
	e.bindLayout = e.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: &wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	})
	pipelineLayout := e.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "layer pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{e.bindLayout},
	})
	e.pipeline = e.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "layer pipeline",
		Layout: pipelineLayout,
		Vertex: &wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 8,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{
							Format:         wgpu.VertexFormatFloat32x2,
							Offset:         0,
							ShaderLocation: 0,
						},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format: e.opts.SurfaceFormat,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
						Alpha: wgpu.BlendComponent{
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
							Operation: wgpu.BlendOperationAdd,
						},
					},
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: &wgpu.PrimitiveState{
			Topology:         wgpu.PrimitiveTopologyTriangleList,
			StripIndexFormat: ^wgpu.IndexFormat(0),
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         wgpu.CullModeNone,
		},
		Multisample: &wgpu.MultisampleState{
			Count:                  1,
			Mask:                   ^uint32(0),
			AlphaToCoverageEnabled: false,
		},
	})

	e.ready = true
	return nil
}

func (e *Engine) Ready() bool {
	return e.ready && e.target != nil
}

// SetTarget points the engine at the texture view it draws into.
func (e *Engine) SetTarget(view *wgpu.TextureView, width, height int) {
	e.target = view
	e.targetWidth = width
	e.targetHeight = height
}

// InvalidateScene drops all cached layer geometry. The buffers go back to
// the pool, so the rebuild that follows mostly reuses them.
func (e *Engine) InvalidateScene() {
	e.batches.invalidate()
	for key, gb := range e.gpu {
		e.releaseBatch(gb)
		delete(e.gpu, key)
	}
}

func (e *Engine) Close() {
	e.InvalidateScene()
	e.pool.drain()
	e.ready = false
}

func (e *Engine) releaseBatch(gb *gpuBatch) {
	if gb.vertexBuf != nil {
		e.pool.put(gb.vertexSize, vertexUsage, gb.vertexBuf)
	}
	if gb.indexBuf != nil {
		e.pool.put(gb.indexSize, indexUsage, gb.indexBuf)
	}
	if gb.uniformBuf != nil {
		e.pool.put(uniformSize, uniformUsage, gb.uniformBuf)
	}
	if gb.bindGroup != nil {
		gb.bindGroup.Release()
	}
}

func (e *Engine) Draw(frame *layview.Frame) (int, error) {
	if !e.ready {
		return 0, errors.New("wgpuengine: not initialized")
	}
	if e.target == nil {
		return 0, errors.New("wgpuengine: no render target")
	}

	for _, dirty := range e.batches.sync(frame.Graph) {
		e.upload(dirty)
	}

	view := ndcMatrix(frame.View, frame.Viewport.Width, frame.Viewport.Height)
	calls := 0

	encoder := e.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "layer draw"})
	defer encoder.Release()

	bg := frame.Background.Premultiply()
	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       e.target,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: bg.R, G: bg.G, B: bg.B, A: bg.A},
			},
		},
	})
	defer renderPass.Release()

	renderPass.SetPipeline(e.pipeline)
	for _, ld := range frame.Layers {
		gb, ok := e.gpu[ld.Key]
		if !ok || gb.indexCount == 0 {
			continue
		}
		var u [uniformSize / 4]float32
		copy(u[:16], view[:])
		color := ld.Style.Color.WithAlpha(ld.Style.Opacity).Float32()
		copy(u[16:], color[:])
		e.queue.WriteBuffer(gb.uniformBuf, 0, safeish.SliceCast[[]byte](u[:]))

		renderPass.SetBindGroup(0, gb.bindGroup, nil)
		renderPass.SetVertexBuffer(0, gb.vertexBuf, 0, gb.vertexSize)
		renderPass.SetIndexBuffer(gb.indexBuf, wgpu.IndexFormatUint32, 0, gb.indexSize)
		renderPass.DrawIndexed(gb.indexCount, 1, 0, 0, 0)
		calls++
	}
	renderPass.End()

	cmd := encoder.Finish(nil)
	defer cmd.Release()
	e.queue.Submit(cmd)

	return calls, nil
}

// upload materializes one rebuilt batch on the device.
func (e *Engine) upload(b *layerBatch) {
	if old, ok := e.gpu[b.key]; ok {
		e.releaseBatch(old)
		delete(e.gpu, b.key)
	}
	if len(b.mesh.Indices) == 0 {
		e.gpu[b.key] = &gpuBatch{}
		return
	}

	vertexData := safeish.SliceCast[[]byte](b.mesh.Vertices)
	indexData := safeish.SliceCast[[]byte](b.mesh.Indices)

	gb := &gpuBatch{
		vertexSize: uint64(len(vertexData)),
		indexSize:  uint64(len(indexData)),
		indexCount: uint32(len(b.mesh.Indices)),
	}
	gb.vertexBuf = e.pool.get(gb.vertexSize, "layer vertices", vertexUsage, e.device)
	gb.indexBuf = e.pool.get(gb.indexSize, "layer indices", indexUsage, e.device)
	gb.uniformBuf = e.pool.get(uniformSize, "layer uniforms", uniformUsage, e.device)
	e.queue.WriteBuffer(gb.vertexBuf, 0, vertexData)
	e.queue.WriteBuffer(gb.indexBuf, 0, indexData)

	gb.bindGroup = e.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: e.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  gb.uniformBuf,
				Size:    uniformSize,
			},
		},
	})
	e.gpu[b.key] = gb

	xlog.Get().Debug("layer batch uploaded",
		"layer", b.key.Layer,
		"datatype", b.key.DataType,
		"vertices", len(b.mesh.Vertices)/2,
		"triangles", len(b.mesh.Indices)/3)
}

// ndcMatrix converts the world-to-screen transform into a column-major
// mat4x4 mapping world coordinates to normalized device coordinates.
func ndcMatrix(view lmath.Transform, width, height int) [16]float32 {
	toNDC := lmath.Transform{
		Matrix:      [4]float64{2 / float64(width), 0, 0, -2 / float64(height)},
		Translation: [2]float64{-1, 1},
	}
	m := toNDC.Mul(view)
	return [16]float32{
		float32(m.Matrix[0]), float32(m.Matrix[1]), 0, 0,
		float32(m.Matrix[2]), float32(m.Matrix[3]), 0, 0,
		0, 0, 1, 0,
		float32(m.Translation[0]), float32(m.Translation[1]), 0, 1,
	}
}
