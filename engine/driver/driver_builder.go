package driver

// DriverOption is a functional option applied to a driver during construction via NewDriver.
type DriverOption func(*driverImpl)

// WithTimeStep overrides the per-frame elapsed-time increment.
// The default is 0.01 seconds.
//
// Parameters:
//   - step: the elapsed-time increment in seconds
//
// Returns:
//   - DriverOption: a function that applies the time step to a driver
func WithTimeStep(step float32) DriverOption {
	return func(d *driverImpl) {
		d.timeStep = step
	}
}

// WithPipelineKey overrides the renderer cache key used to dispatch the
// motion compute pipeline.
//
// Parameters:
//   - key: the pipeline cache key
//
// Returns:
//   - DriverOption: a function that applies the pipeline key to a driver
func WithPipelineKey(key string) DriverOption {
	return func(d *driverImpl) {
		d.pipelineKey = key
	}
}
