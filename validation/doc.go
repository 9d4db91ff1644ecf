// Package validation turns go-playground/validator failures and ad hoc
// checks into INVALID_INPUT AppErrors with per-field details.
package validation
