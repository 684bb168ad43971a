package configparser

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

var ErrNoFilePath = errors.New("no file path provided")

// Options describes how configuration is layered.
type Options struct {
	// Defaults is a struct with `koanf` tags holding the built-in values.
	Defaults any
	// FilePath is an optional YAML file. A missing file is not an error.
	FilePath string
	// Sections are the top-level keys that environment variables may set:
	// DATABASE_HOST -> database.host when "database" is a section.
	Sections []string
	// SliceKeys are keys whose env value is a comma separated list.
	SliceKeys []string
}

// Load fills dst from defaults, then the YAML file, then the environment.
func Load(opts Options, dst any) error {
	k := koanf.New(".")

	if opts.Defaults != nil {
		if err := k.Load(structs.Provider(opts.Defaults, "koanf"), nil); err != nil {
			return fmt.Errorf("load defaults: %w", err)
		}
	}

	if opts.FilePath != "" {
		if _, err := os.Stat(opts.FilePath); err == nil {
			if err := k.Load(file.Provider(opts.FilePath), yaml.Parser()); err != nil {
				return fmt.Errorf("load config file %s: %w", opts.FilePath, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat config file %s: %w", opts.FilePath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", EnvKey(opts.Sections)), nil); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}

	if err := splitSlices(k, opts.SliceKeys); err != nil {
		return err
	}

	if err := k.Unmarshal("", dst); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	return nil
}

// EnvKey maps SECTION_SOME_KEY to section.some_key for known sections.
// Anything else maps to "" and is ignored.
func EnvKey(sections []string) func(string) string {
	return func(key string) string {
		key = strings.ToLower(key)
		for _, s := range sections {
			if rest, ok := strings.CutPrefix(key, s+"_"); ok && rest != "" {
				return s + "." + rest
			}
		}
		return ""
	}
}

func splitSlices(k *koanf.Koanf, keys []string) error {
	for _, key := range keys {
		s, ok := k.Get(key).(string)
		if !ok {
			continue
		}

		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(key, out); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}
