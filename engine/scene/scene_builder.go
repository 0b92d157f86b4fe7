package scene

// SceneOption is a functional option used to configure a Scene during construction.
type SceneOption func(*sceneImpl)

// WithTimeStep sets the per-frame animation time increment in seconds.
//
// Parameters:
//   - step: the time increment per frame
//
// Returns:
//   - SceneOption: a function that sets the time step for this scene
func WithTimeStep(step float32) SceneOption {
	return func(s *sceneImpl) {
		if step > 0 {
			s.timeStep = step
		}
	}
}

// WithAspect sets the camera aspect ratio, typically window width over height.
//
// Parameters:
//   - aspect: the aspect ratio
//
// Returns:
//   - SceneOption: a function that sets the aspect ratio for this scene
func WithAspect(aspect float32) SceneOption {
	return func(s *sceneImpl) {
		if aspect > 0 {
			s.aspect = aspect
		}
	}
}

// WithActive sets whether the scene starts active in the frame loop.
//
// Parameters:
//   - active: the initial active state
//
// Returns:
//   - SceneOption: a function that sets the initial active state
func WithActive(active bool) SceneOption {
	return func(s *sceneImpl) {
		s.active = active
	}
}
