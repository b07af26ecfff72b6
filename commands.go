package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"hermannm.dev/devlog/log"
	"hermannm.dev/druidquery/api"
	"hermannm.dev/druidquery/config"
	"hermannm.dev/druidquery/druid"
	"hermannm.dev/druidquery/query"
	"hermannm.dev/wrap"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "druidquery",
		Short: "Run native Druid queries",
		Long: `Checks native Druid queries against the query model before sending them, either from
query files or through an HTTP proxy.

Configured through environment variables (or a .env file): DRUID_NODES is required.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newRunCommand())

	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the query API",
		Long: `Starts an HTTP API on API_PORT, with the endpoints:
  POST /query       native query in the body
  POST /query/csv   multipart 'query' and 'csvFile', with the CSV rows as data source
  POST /csv/schema  multipart 'csvFile', returns the deduced column kinds`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, client, err := readConfigAndCreateClient()
			if err != nil {
				return err
			}

			queryAPI := api.NewQueryAPI(client, http.NewServeMux(), conf.API)

			log.Infof("Listening on port %s...", conf.API.Port)
			if err := queryAPI.ListenAndServe(); err != nil {
				log.ErrorCause(err, "server stopped")
				return err
			}
			return nil
		},
	}
}

func newRunCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a query from a JSON or YAML file",
		Long: `Decodes a native query from the given file, and prints Druid's raw result.
Files ending in .yaml or .yml are read as YAML, other files as JSON.`,
		Example: `  druidquery run --file top-pages.json
  druidquery run --file top-pages.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, client, err := readConfigAndCreateClient()
			if err != nil {
				return err
			}

			q, err := readQueryFile(file)
			if err != nil {
				log.ErrorCause(err, "failed to read query")
				return err
			}

			q, queryID, err := api.EnsureQueryID(q)
			if err != nil {
				log.ErrorCause(err, "failed to prepare query")
				return err
			}
			log.Infof("Running %s query with ID '%s'...", q.QueryType(), queryID)
			log.Debug("sending query to Druid", log.JSON("query", q))

			result, err := druid.Do[json.RawMessage](cmd.Context(), client, q)
			if err != nil {
				log.ErrorCause(err, "failed to run query")
				return err
			}
			log.Debug("received Druid response", log.JSON("response", result))

			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to query file (.json, .yaml or .yml)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readConfigAndCreateClient() (config.Config, *druid.Client, error) {
	conf, err := config.ReadFromEnv()
	if err != nil {
		log.ErrorCause(err, "failed to read config from env")
		return config.Config{}, nil, err
	}
	setUpLoggerFromConfig(conf)

	client, err := conf.Druid.NewClient()
	if err != nil {
		log.ErrorCause(err, "failed to initialize Druid client")
		return config.Config{}, nil, err
	}

	return conf, client, nil
}

func readQueryFile(path string) (query.Query, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, wrap.Errorf(err, "failed to read query file '%s'", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		content, err = yamlToJSON(content)
		if err != nil {
			return nil, wrap.Errorf(err, "failed to parse YAML in query file '%s'", path)
		}
	}

	q, err := query.UnmarshalQuery(content)
	if err != nil {
		return nil, wrap.Errorf(err, "invalid query in file '%s'", path)
	}
	return q, nil
}

func yamlToJSON(content []byte) ([]byte, error) {
	var value any
	if err := yaml.Unmarshal(content, &value); err != nil {
		return nil, err
	}
	return json.Marshal(value)
}

func printJSON(output io.Writer, raw json.RawMessage) error {
	var indented bytes.Buffer
	if err := json.Indent(&indented, raw, "", "  "); err != nil {
		return wrap.Error(err, "failed to format query result")
	}
	indented.WriteByte('\n')

	_, err := indented.WriteTo(output)
	return err
}
