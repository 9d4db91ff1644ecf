package logger

import "time"

// Field keys used across the service.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"

	FieldProvider  = "provider"
	FieldModelID   = "model_id"
	FieldFile      = "file"
	FieldBytesSent = "bytes_sent"
	FieldSegments  = "segments"
)

// Fields builds a field map from alternating key-value pairs.
//
//	log.Info("staged", logger.Fields(logger.FieldFile, name, "size", n))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields describes a failed operation.
func ErrorFields(op string, err error) map[string]interface{} {
	m := map[string]interface{}{FieldOperation: op}
	if err != nil {
		m[FieldError] = err.Error()
	}
	return m
}

// DurationFields describes a timed operation.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}
