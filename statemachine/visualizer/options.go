package visualizer

// Options configures the visualization output.
type Options struct {
	// ShowActions appends the action name to transition labels
	ShowActions bool

	// ShowTimeouts labels timeout transitions with their duration
	ShowTimeouts bool

	// ShowGroups wraps states of non-default groups in composite states
	ShowGroups bool

	// Direction controls diagram flow: "TD" (top-down) or "LR" (left-right)
	Direction string

	// HighlightPath highlights a specific state path through the diagram
	HighlightPath []string
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		ShowActions:  true,
		ShowTimeouts: true,
		ShowGroups:   true,
		Direction:    "TD",
	}
}

// WithShowActions enables/disables action names on transitions.
func (o Options) WithShowActions(show bool) Options {
	o.ShowActions = show

	return o
}

// WithShowTimeouts enables/disables timeout durations on transitions.
func (o Options) WithShowTimeouts(show bool) Options {
	o.ShowTimeouts = show

	return o
}

// WithShowGroups enables/disables group composite states.
func (o Options) WithShowGroups(show bool) Options {
	o.ShowGroups = show

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithHighlightPath sets states to highlight.
func (o Options) WithHighlightPath(path []string) Options {
	o.HighlightPath = path

	return o
}
