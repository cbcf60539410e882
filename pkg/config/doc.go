// Package config loads typed configuration from the environment.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: the
// default .env file is read once per process, optional extra files can be
// requested per call, and the environment is parsed into any struct using
// `env`/`envDefault` tags. Packages in this module expose their own Config
// structs (channel.Config, session.Config, ...) which are loaded here:
//
//	var cfg channel.Config
//	config.MustLoad(&cfg)
//	mgr, err := channel.NewFromConfig(cfg, st)
//
// Tests pass WithEnvironment to avoid touching the process environment.
package config
