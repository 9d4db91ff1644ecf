package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts the file operations the loader needs.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem reads from disk. .env values never override variables that
// are already set in the process environment.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver finds config and env files for a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles holds the files LoadConfig will read. Empty means none found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths from opts, searching for the rest.
func (r *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = r.firstExisting(configSearchPaths(serviceName))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.firstExisting(envSearchPaths(serviceName))
	}
	return files
}

func (r *Resolver) firstExisting(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

func configSearchPaths(serviceName string) []string {
	var paths []string
	for _, up := range []string{".", "..", "../.."} {
		paths = append(paths, fmt.Sprintf("%s/cmd/%s/config.yml", up, serviceName))
	}
	return append(paths, "./config/config.yml", "../config/config.yml", "./config.yml")
}

func envSearchPaths(serviceName string) []string {
	var paths []string
	for _, name := range []string{".env." + serviceName, ".env"} {
		for _, dir := range []string{"./cmd/" + serviceName, "../cmd/" + serviceName, ".", "..", "../.."} {
			paths = append(paths, dir+"/"+name)
		}
	}
	return paths
}

// LoaderConfig holds loader dependencies and overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	// Aliases maps extra environment variable names to config keys, for
	// example ELEVENLABS -> elevenlabs.api_key. The canonical variable wins
	// when both are set.
	Aliases   map[string]string
	Overrides map[string]any
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvAlias reads key from envVar when no canonical variable sets it.
func WithEnvAlias(envVar, key string) LoaderOption {
	return func(lc *LoaderConfig) {
		if lc.Aliases == nil {
			lc.Aliases = make(map[string]string)
		}
		lc.Aliases[envVar] = key
	}
}

// WithOverride forces key to value after files and environment are read.
// Command line flags use it.
func WithOverride(key string, value any) LoaderOption {
	return func(lc *LoaderConfig) {
		if lc.Overrides == nil {
			lc.Overrides = make(map[string]any)
		}
		lc.Overrides[key] = value
	}
}

// LoadConfig fills cfg from, in increasing precedence: config.yml, .env,
// the process environment, and overrides.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = RealFileSystem{}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(serviceName, lc)

	v := viper.New()
	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", files.ConfigFile, err)
		}
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("load env file %s: %w", files.EnvFile, err)
		}
	}

	applyAliases(v, lc.Aliases)
	autoBindEnvVars(v)

	for k, val := range lc.Overrides {
		v.Set(k, val)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

func applyAliases(v *viper.Viper, aliases map[string]string) {
	for envVar, key := range aliases {
		if val, ok := os.LookupEnv(envVar); ok && val != "" {
			v.Set(key, val)
		}
	}
}

// autoBindEnvVars maps every environment variable onto the config keys it
// could name. A variant that already holds a section is left alone, so a
// variable like ELEVENLABS cannot replace the elevenlabs block.
func autoBindEnvVars(v *viper.Viper) {
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok || key == "" {
			continue
		}
		for _, variant := range generateEnvKeyVariants(key) {
			if _, isSection := v.Get(variant).(map[string]interface{}); isSection {
				continue
			}
			v.Set(variant, value)
		}
	}
}

// generateEnvKeyVariants lists the dotted keys an environment variable may
// refer to:
//
//	ELEVENLABS_API_KEY -> elevenlabs_api_key, elevenlabs.api.key,
//	                      elevenlabs.api_key, elevenlabs_api.key
func generateEnvKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) <= 1 {
		return []string{lower}
	}

	variants := []string{lower, strings.Join(parts, ".")}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
		variants = append(variants, strings.Join(parts[:i], "_")+"."+strings.Join(parts[i:], "_"))
	}
	return dedupe(variants)
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
