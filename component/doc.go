// Package component defines the lifecycle contract shared by the pieces of
// a resourcekit client (loaders, telemetry exporters) and a Registry that
// starts them in order and stops them in reverse.
package component
