package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// configPath finds the --config flag before kong parses the command line, so
// the file can feed the resolver for every other flag.
func configPath(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}

		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v
		}

		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}

	return os.Getenv("PDFANNOTATE_CONFIG")
}

func loadConfig(path string) (kong.Option, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	defer f.Close()

	r, err := yamlResolver(f)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	return kong.Resolvers(r), nil
}

// yamlResolver reads flag values from a YAML mapping keyed by flag name.
// Keys nested under a command name apply to that command's flags only:
//
//	log-level: debug
//	annotate:
//	  highlight-color: "#00ff00"
//	  term: [Steuer, Recht]
func yamlResolver(r io.Reader) (kong.Resolver, error) {
	values := map[string]interface{}{}

	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	var f kong.ResolverFunc = func(context *kong.Context, parent *kong.Path, flag *kong.Flag) (interface{}, error) {
		if parent != nil && parent.Command != nil {
			if section, ok := values[parent.Command.Name].(map[string]interface{}); ok {
				if v, ok := lookup(section, flag.Name); ok {
					return v, nil
				}
			}
		}

		if v, ok := lookup(values, flag.Name); ok {
			return v, nil
		}

		return nil, nil
	}

	return f, nil
}

func lookup(values map[string]interface{}, name string) (interface{}, bool) {
	raw, ok := values[name]
	if !ok {
		raw, ok = values[strings.ReplaceAll(name, "-", "_")]
	}
	if !ok {
		return nil, false
	}

	switch v := raw.(type) {
	case nil, map[string]interface{}:
		return nil, false
	case time.Time:
		return v.Format(time.RFC3339), true
	case []interface{}:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = fmt.Sprint(item)
		}
		return strings.Join(items, ","), true
	default:
		return fmt.Sprint(v), true
	}
}
