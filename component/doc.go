// Package component defines the lifecycle contract shared by the server,
// storage backends, telemetry and the inbox watcher.
//
// Components start in registration order and stop in reverse. Describable
// and RouteProvider feed the startup summary.
package component
