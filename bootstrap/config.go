package bootstrap

import "github.com/kbukum/scribe/config"

// Config is satisfied by any struct embedding config.ServiceConfig, through
// the promoted methods. Structs that add sections override ApplyDefaults and
// Validate and call the embedded versions.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
