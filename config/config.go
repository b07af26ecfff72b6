package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"hermannm.dev/druidquery/druid"
	"hermannm.dev/wrap"
)

type Config struct {
	IsProduction bool `env:"PRODUCTION" envDefault:"false"`
	API          API
	Druid        Druid
}

type API struct {
	Port string `env:"API_PORT" envDefault:"8080"`
}

type Druid struct {
	Nodes         []string `env:"DRUID_NODES" envSeparator:","`
	QueryPath     string   `env:"DRUID_QUERY_PATH" envDefault:"/druid/v2/"`
	NodeSelection string   `env:"DRUID_NODE_SELECTION" envDefault:"first"`
	// Enables debug logs, where the CLI and API log encoded queries and raw responses.
	Debug bool `env:"DRUID_DEBUG_ENABLED" envDefault:"false"`
}

// ReadFromEnv reads config from environment variables, after loading them from a .env file in
// the working directory if one exists.
func ReadFromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, wrap.Error(err, "failed to load .env file")
	}

	return Parse(env.Options{})
}

// Parse reads config from environment variables, with the given options added to the defaults.
// Variables without an envDefault are required.
func Parse(options env.Options) (Config, error) {
	options.RequiredIfNoDef = true

	var config Config
	if err := env.ParseWithOptions(&config, options); err != nil {
		return Config{}, wrap.Error(err, "invalid environment variables")
	}

	if _, err := druid.ParseNodeSelection(config.Druid.NodeSelection); err != nil {
		return Config{}, wrap.Error(err, "invalid value for DRUID_NODE_SELECTION")
	}

	return config, nil
}

// NewClient creates a Druid client from the config.
func (config Druid) NewClient(options ...druid.Option) (*druid.Client, error) {
	selection, err := druid.ParseNodeSelection(config.NodeSelection)
	if err != nil {
		return nil, err
	}

	options = append(
		[]druid.Option{druid.WithQueryPath(config.QueryPath), druid.WithNodeSelection(selection)},
		options...,
	)

	client, err := druid.NewClient(config.Nodes, options...)
	if err != nil {
		return nil, wrap.Error(err, "failed to create Druid client from DRUID_NODES")
	}
	return client, nil
}
