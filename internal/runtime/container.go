// Package runtime owns the process-wide dependency container, replacing
// the "singleton service caches" of the source system with a dig-wired
// container built once at startup (§9 redesign note), the same role
// WeKnora's runtime.GetContainer() plays for its embedder constructors.
package runtime

import "go.uber.org/dig"

var container = dig.New()

// Container returns the process-wide dig container. Components register
// constructors with Provide during startup wiring in cmd/server/main.go.
func Container() *dig.Container {
	return container
}

// Provide registers a constructor with the process container.
func Provide(constructor interface{}, opts ...dig.ProvideOption) error {
	return container.Provide(constructor, opts...)
}

// Invoke resolves and calls fn, injecting its arguments from the container.
func Invoke(fn interface{}, opts ...dig.InvokeOption) error {
	return container.Invoke(fn, opts...)
}
