// Package g3d is a small real-time 3D rendering substrate for the GoGPU
// ecosystem.
//
// It builds polygonal geometry for primitive and loaded shapes, derives
// per-vertex lighting normals, and defers every GPU upload until a rendering
// context is current.
//
// # Overview
//
// The root package holds the math shared by every sub-package: single
// precision vectors ([Vec2], [Vec3]), row-major matrices ([Mat3], [Mat4]),
// ZYX Euler angles ([Euler]) and the scene node [Transform] whose model
// matrix is recomputed eagerly on every setter.
//
// # Architecture
//
// The library is organized into:
//   - mesh: mesh data, normal synthesis, indexing, primitives, OBJ parsing
//   - load: reference-counted deferred loads and the FIFO queue that drains them
//   - render: GPU devices, geometry/texture/font resources, the per-context
//     geometry cache and the rendering context
//   - shape: cubes, cylinders, spheres, lines and loaded models
//
// # Resource lifecycle
//
// Shapes can be created before any GPU device exists. Each shape registers a
// pending load with its render.Context; when the context is made current,
// Flush uploads every load that still has an owner and discards the rest
// without touching the GPU:
//
//	ctx := render.NewContext()
//	cube, _ := shape.NewCube(ctx, 1, 2, 3)
//	defer cube.Close()
//
//	ctx.MakeCurrent(device)
//	if _, err := ctx.Flush(); err != nil {
//	    log.Printf("upload: %v", err)
//	}
//
// # Logging
//
// g3d is silent by default. Call [SetLogger] to route its diagnostics to any
// [log/slog] handler.
package g3d
