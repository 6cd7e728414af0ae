package decay

import "log/slog"

// options holds the construction-time configuration shared by every collection.
type options struct {
	steps    int
	stepsSet bool
	timer    Timer
	timerSet bool
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a collection at construction time.
type Option func(*options)

// WithSteps sets the number of buckets the lifespan is divided into.
// The default is one bucket per whole second of lifespan, and at least one.
func WithSteps(steps int) Option {
	return func(o *options) {
		o.steps = steps
		o.stepsSet = true
	}
}

// WithTimer replaces the default ticker-backed Timer. The collection takes
// ownership and closes the timer on Close.
func WithTimer(t Timer) Option {
	return func(o *options) {
		o.timer = t
		o.timerSet = true
	}
}

// WithLogger sets the logger used for timer transitions and rotations.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRecorder attaches a Recorder that observes every count transition.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}
