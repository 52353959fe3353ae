package render

// Option configures a Context during creation.
//
// Example:
//
//	// Queue uploads now, attach the device later with MakeCurrent.
//	ctx, _ := render.NewContext()
//
//	// Current from the start on a host-provided device.
//	ctx, err := render.NewContext(render.WithDeviceProvider(provider))
type Option func(*options)

type options struct {
	device   Device
	provider DeviceHandle
	cache    *GeometryCache
}

// WithDevice makes dev current as soon as the context is created.
func WithDevice(dev Device) Option {
	return func(o *options) {
		o.device = dev
	}
}

// WithDeviceProvider makes the HAL device of a gogpu host current as soon
// as the context is created. The provider must expose HalDevice and
// HalQueue; see NewHALDeviceFromProvider.
func WithDeviceProvider(p DeviceHandle) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithCache shares a geometry cache with other contexts of the same share
// group. By default every context gets its own cache.
func WithCache(c *GeometryCache) Option {
	return func(o *options) {
		o.cache = c
	}
}
