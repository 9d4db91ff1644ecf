// Package errors defines AppError, the coded error carried across scribe's
// package boundaries and rendered to HTTP clients.
package errors
