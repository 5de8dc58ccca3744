package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays environment variables named in the Config env tags.
// Unset variables keep the value from the earlier layers.
func parseEnv(config *Config) {
	if err := cleanenv.ReadEnv(config); err != nil {
		panic(err)
	}
}
