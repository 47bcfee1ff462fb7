// Command generate-schema writes the JSON schema of the nbcontents config
// file, for editor completion and validation of config.yaml.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/urfave/cli/v3"

	"github.com/marmos91/nbcontents/pkg/config"
)

const schemaID = "https://github.com/marmos91/nbcontents/config.schema.json"

func reflectSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		FieldNameTag:              "yaml",
	}
	s := r.Reflect(&config.Config{})
	s.ID = jsonschema.ID(schemaID)
	s.Title = "nbcontents configuration"
	s.Description = "Configuration file of the nbcontents contents server (config.yaml)"
	return s
}

func generate(_ context.Context, cmd *cli.Command) error {
	data, err := json.MarshalIndent(reflectSchema(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	data = append(data, '\n')

	out := cmd.Args().First()
	if out == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if out == "" {
		out = "config.schema.json"
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(os.Stderr, "JSON schema written to %s\n", out)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "generate-schema",
		Usage:     "Write the JSON schema of the nbcontents config file",
		ArgsUsage: "[output (default config.schema.json, - for stdout)]",
		Action:    generate,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "generate-schema: %v\n", err)
		os.Exit(1)
	}
}
