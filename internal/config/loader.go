package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

// includeKeys name the directive that pulls other files in, in order of
// precedence. Included files are merged first; the including file wins.
var includeKeys = []string{"$include", "include"}

// envRef matches ${NAME} and ${NAME:-fallback}. Bare $NAME is left alone so
// that keys such as $include survive expansion.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

var errMultipleDocuments = errors.New("failed to parse config: expected single document")

// ExpandEnv substitutes ${NAME} references from the process environment.
// Unset or empty variables expand to the fallback, or to the empty string.
func ExpandEnv(data string) string {
	return envRef.ReplaceAllStringFunc(data, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		if value := os.Getenv(m[1]); value != "" {
			return value
		}
		return m[3]
	})
}

// LoadRaw reads a configuration file into a merged map, resolving includes
// relative to the file that names them.
func LoadRaw(path string) (map[string]any, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path is required")
	}
	var r includeResolver
	return r.load(path)
}

// includeResolver tracks the chain of files being loaded so that cycles can
// be reported with their full path.
type includeResolver struct {
	chain []string
}

func (r *includeResolver) load(path string) (map[string]any, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	for _, open := range r.chain {
		if open == abs {
			return nil, fmt.Errorf("config include cycle detected: %s -> %s",
				strings.Join(r.chain, " -> "), abs)
		}
	}
	r.chain = append(r.chain, abs)
	defer func() { r.chain = r.chain[:len(r.chain)-1] }()

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument([]byte(ExpandEnv(string(data))), abs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	includes, err := takeIncludes(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}

	merged := map[string]any{}
	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(abs), inc)
		}
		sub, err := r.load(inc)
		if err != nil {
			return nil, err
		}
		overlay(merged, sub)
	}
	overlay(merged, doc)
	return merged, nil
}

// parseDocument decodes JSON5 for .json and .json5 files and YAML otherwise.
func parseDocument(data []byte, path string) (map[string]any, error) {
	doc := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".json5":
		if err := json5.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return nil, errMultipleDocuments
		}
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// takeIncludes removes the include directive from doc and returns its paths.
func takeIncludes(doc map[string]any) ([]string, error) {
	for _, key := range includeKeys {
		value, ok := doc[key]
		if !ok {
			continue
		}
		delete(doc, key)

		var paths []string
		switch v := value.(type) {
		case nil:
		case string:
			paths = append(paths, v)
		case []any:
			for _, entry := range v {
				s, ok := entry.(string)
				if !ok {
					return nil, fmt.Errorf("%s entries must be strings", key)
				}
				paths = append(paths, s)
			}
		default:
			return nil, fmt.Errorf("%s must be a string or list of strings", key)
		}

		out := paths[:0]
		for _, p := range paths {
			if strings.TrimSpace(p) != "" {
				out = append(out, p)
			}
		}
		return out, nil
	}
	return nil, nil
}

// overlay deep-merges src into dst. Nested maps merge; everything else,
// lists included, is replaced.
func overlay(dst, src map[string]any) {
	for key, value := range src {
		if sub, ok := value.(map[string]any); ok {
			if existing, ok := dst[key].(map[string]any); ok {
				overlay(existing, sub)
				continue
			}
		}
		dst[key] = value
	}
}

// decodeRawConfig round-trips the merged map through YAML so that strict
// field checking and duration parsing apply to included files too.
func decodeRawConfig(raw map[string]any) (*Config, error) {
	payload, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(payload))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
