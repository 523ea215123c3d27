package pillarscatter

// ValidationPolicy selects the coordinate validation contract of a
// Scatterer; see the package documentation.
type ValidationPolicy int

const (
	// Defensive checks every item's coordinate against the grid
	// geometry; violations are skipped and counted in Result.Rejected.
	// This is the default.
	Defensive ValidationPolicy = iota

	// Trusting assumes batch == 0 and in-range coordinates for every
	// item, enforced upstream. Violating the precondition is undefined
	// behavior and may corrupt adjacent grid cells.
	Trusting
)

// String returns the policy name.
func (p ValidationPolicy) String() string {
	switch p {
	case Defensive:
		return "defensive"
	case Trusting:
		return "trusting"
	default:
		return "unknown"
	}
}

// Option configures a Scatterer during creation.
//
// Example:
//
//	// Default: 8 workers, defensive validation
//	sc := pillarscatter.New(geom)
//
//	// Trusted upstream, one worker per CPU
//	sc := pillarscatter.New(geom,
//	    pillarscatter.WithWorkers(0),
//	    pillarscatter.WithValidation(pillarscatter.Trusting))
type Option func(*scattererOptions)

// scattererOptions holds optional configuration for Scatterer creation.
type scattererOptions struct {
	workers int
	policy  ValidationPolicy
	noAccel bool
}

// defaultOptions returns the default scatterer options.
// DefaultWorkers mirrors the reference deployment's core count.
func defaultOptions() scattererOptions {
	return scattererOptions{
		workers: DefaultWorkers,
		policy:  Defensive,
	}
}

// DefaultWorkers is the worker count used when WithWorkers is not
// given: the reference kernel runs on 8 cores.
const DefaultWorkers = 8

// WithWorkers sets the number of parallel workers. Zero or negative
// selects runtime.GOMAXPROCS(0). The partition of items across workers
// depends only on the worker count, never on scheduling, so results
// are identical for any value.
func WithWorkers(n int) Option {
	return func(o *scattererOptions) {
		o.workers = n
	}
}

// WithValidation sets the coordinate validation policy.
func WithValidation(p ValidationPolicy) Option {
	return func(o *scattererOptions) {
		o.policy = p
	}
}

// WithoutAccelerator forces the CPU engine even when an accelerator is
// registered. Useful for comparing backends and for tests.
func WithoutAccelerator() Option {
	return func(o *scattererOptions) {
		o.noAccel = true
	}
}
