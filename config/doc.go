// Package config loads service configuration with viper.
//
// Sources, lowest precedence first: cmd/<service>/config.yml, a .env file
// loaded with godotenv, the process environment and explicit overrides.
// Environment variables map onto nested keys by splitting on underscores,
// so ELEVENLABS_API_KEY sets elevenlabs.api_key.
package config
