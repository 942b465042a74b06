package criteria

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/screener/internal/models"
)

// ParseInline parses "key=value,key=value". Pairs without "=" are skipped. Values become
// bool for true/false (any case), then float64, otherwise they stay strings.
func ParseInline(s string) models.CriteriaConfig {
	var cfg models.CriteriaConfig
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		cfg = cfg.Set(key, coerce(strings.TrimSpace(raw)))
	}
	return cfg
}

func coerce(raw string) interface{} {
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// LoadFile reads criteria from the screener.criteria section of a YAML or JSON file,
// keeping key order. A file without the section yields an empty configuration.
func LoadFile(path string) (models.CriteriaConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read criteria file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(data)
	case ".yaml", ".yml", "":
		return parseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported criteria file type %s", filepath.Ext(path))
	}
}

func parseJSON(data []byte) (models.CriteriaConfig, error) {
	var doc struct {
		Screener struct {
			Criteria models.CriteriaConfig `json:"criteria"`
		} `json:"screener"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse criteria JSON: %w", err)
	}
	return doc.Screener.Criteria, nil
}

func parseYAML(data []byte) (models.CriteriaConfig, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse criteria YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	node := mappingValue(root.Content[0], "screener")
	node = mappingValue(node, "criteria")
	if node == nil {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("screener.criteria must be a mapping (line %d)", node.Line)
	}

	var cfg models.CriteriaConfig
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var value interface{}
		if err := node.Content[i+1].Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to decode criterion %s: %w", key, err)
		}
		cfg = cfg.Set(key, value)
	}
	return cfg, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// LoadDefaultTickers reads screener.default_tickers from a YAML criteria file.
func LoadDefaultTickers(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read criteria file %s: %w", path, err)
	}
	var doc struct {
		Screener struct {
			DefaultTickers []string `yaml:"default_tickers" json:"default_tickers"`
		} `yaml:"screener" json:"screener"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc.Screener.DefaultTickers, nil
}

// Resolve picks the criteria source by precedence: inline string, then criteria file,
// then the configured rules. The first source that is set wins outright; sources are not merged.
func Resolve(inline, file string, rules models.CriteriaConfig) (models.CriteriaConfig, error) {
	if strings.TrimSpace(inline) != "" {
		return ParseInline(inline), nil
	}
	if file != "" {
		return LoadFile(file)
	}
	return rules, nil
}
