// Package config loads TalentStats configuration from environment
// variables and validates it.
package config
