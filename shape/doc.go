// Package shape builds the drawable 3D objects of a scene: cubes,
// cylinders, spheres, lines and loaded models.
//
// Primitive shapes of one kind share a single canonical unit mesh per
// rendering context through the context's render.GeometryCache; their
// size is folded into the model matrix as per-axis dimensions. Models get
// their own geometry. Every constructor queues the GPU upload on the
// context, so shapes can be created before any device is current:
//
//	ctx, _ := render.NewContext()
//	cube, _ := shape.NewCube(ctx, 2, 1, 0.5)
//	defer cube.Close()
//	cube.SetTranslation(g3d.V3(0, 0, 3))
//
//	_ = ctx.MakeCurrent(device)
//	_, _ = ctx.Flush()
//	cube.Draw(pass)
package shape
