// Package storage is the object store behind transcript audit copies.
//
// Backends register themselves by provider name:
//
//	import (
//	    _ "github.com/kbukum/scribe/storage/local"
//	    _ "github.com/kbukum/scribe/storage/s3"
//	)
//
//	comp := storage.NewComponent(cfg.Storage, log)
package storage
