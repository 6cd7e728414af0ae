package decay

// Recorder receives a callback for every change to a collection's contents
// and timer state. Implementations must be safe for concurrent use and must
// not call back into the collection.
type Recorder interface {
	// Added is called once per inserted item.
	Added(n int)
	// Removed counts items dropped explicitly, by Remove, a Set/Map reset or Clear.
	Removed(n int)
	// Decayed counts items evicted by a timer rotation.
	Decayed(n int)
	// Rotated is called once per timer-driven rotation.
	Rotated()
	// TimerToggled reports the timer being started (true) or paused (false).
	TimerToggled(running bool)
}

type nopRecorder struct{}

func (nopRecorder) Added(int)         {}
func (nopRecorder) Removed(int)       {}
func (nopRecorder) Decayed(int)       {}
func (nopRecorder) Rotated()          {}
func (nopRecorder) TimerToggled(bool) {}
