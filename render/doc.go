// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render owns the GPU side of g3d: devices, GPU-resident resources
// and the rendering context that gates uploads.
//
// # Key Principle
//
// g3d RECEIVES a GPU device from the host application, it does NOT create
// its own. The host hands a [DeviceHandle] (or any [Device]) to
// [Context.MakeCurrent] once its GPU context is live; until then every
// upload waits in the context's load queue.
//
// # Core Types
//
//   - Device: the narrow buffer/texture surface uploads need
//   - HALDevice: Device over gogpu/wgpu HAL objects
//   - HeadlessDevice: in-memory Device for tests and offline tools
//   - GeometryBuffer, Texture, Font: GPU resources with a tagged
//     Unloaded/Resident/Failed state
//   - GeometryCache: per-context sharing of canonical shape geometry
//   - Context: load queue + cache + current device
//
// # Lifecycle
//
// Resources are created empty. The only way to make one resident is to
// drain its upload payload (see [NewMeshUpload], [NewTextureUpload],
// [NewFontUpload]) through [Context.Flush] while the context is current.
// Drawing a resource that is not resident is a no-op.
package render
