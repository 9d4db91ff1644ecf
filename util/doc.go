// Package util holds small helpers shared by scribe packages.
package util
