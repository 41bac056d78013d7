package orchestrator

// RunContext is the read-only view an analyzer gets of the current run.
type RunContext struct {
	runID    string
	pass     int
	options  map[string]any
	enriched map[string]any
	values   map[string]any
	results  map[string]Result

	// waiting holds first-pass analyzers deferred to the enrichment pass.
	waiting map[string]bool
}

// RunID identifies the run.
func (rc *RunContext) RunID() string {
	return rc.runID
}

// Pass is 1 for the first pass and 2 for the enrichment pass.
func (rc *RunContext) Pass() int {
	return rc.pass
}

// Option returns a caller option. In the enrichment pass it also sees every
// typed value produced in the first pass, keyed by name.
func (rc *RunContext) Option(name string) (any, bool) {
	if v, ok := rc.options[name]; ok {
		return v, true
	}
	v, ok := rc.enriched[name]
	return v, ok
}

// Result returns the recorded result of another analyzer.
func (rc *RunContext) Result(id string) (Result, bool) {
	r, ok := rc.results[id]
	return r, ok
}

// Lookup returns the typed value for k, if one has been produced.
func Lookup[T any](rc *RunContext, k Key[T]) (T, bool) {
	v, ok := rc.values[k.name].(T)
	return v, ok
}

// OptionValue returns the option name when it holds a T.
func OptionValue[T any](rc *RunContext, name string) (T, bool) {
	raw, _ := rc.Option(name)
	v, ok := raw.(T)
	return v, ok
}
