package sim

import "errors"

var (
	// ErrScenarioMalformed reports a scenario that cannot be simulated: missing table or column,
	// non-unique start/end center, unresolved edge endpoint or invalid center attributes.
	ErrScenarioMalformed = errors.New("scenario malformed")

	// ErrRouteExhausted reports a processed detail whose every successor was already visited.
	ErrRouteExhausted = errors.New("route exhausted")

	// ErrBufferMissing reports a center ID without a buffer (scenario/runtime mismatch).
	ErrBufferMissing = errors.New("buffer missing")

	// ErrInterrupted reports a processing sub-task cancelled during its service time.
	ErrInterrupted = errors.New("processing interrupted")

	// ErrStalled reports loaded buffers that no worker can be assigned to.
	ErrStalled = errors.New("simulation stalled")

	// ErrTickLimit reports a run that did not finish within Config.MaxTicks.
	ErrTickLimit = errors.New("tick limit reached")

	// ErrInvalidConfig reports an engine configuration that fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)
