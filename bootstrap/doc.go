// Package bootstrap runs the service lifecycle around a typed config.
//
// NewApp initializes the logger from the config, OnConfigure callbacks
// register components, and Run or RunTask start them, wait and shut down in
// reverse order.
package bootstrap
