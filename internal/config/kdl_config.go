package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// kdlFileName is the config file both binaries look for in the current
// directory, per spec.md §0.2.
const kdlFileName = ".croissantine.kdl"

// LoadKDL loads .croissantine.kdl from dir, layered over Default(). Returns
// Default() unchanged, with no error, if the file doesn't exist.
func LoadKDL(dir string) (Config, error) {
	cfg := Default()

	path := filepath.Join(dir, kdlFileName)
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if err := parseKDL(string(content), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parseKDL(content string, cfg *Config) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("parse %s: %w", kdlFileName, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "database":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "path":
					if s, ok := firstStringArg(cn); ok {
						cfg.Database.Path = s
					}
				case "map_size":
					if s, ok := firstStringArg(cn); ok {
						if sz, err := parseSize(s); err == nil {
							cfg.Database.MapSizeBytes = sz
						}
					} else if v, ok := firstIntArg(cn); ok {
						cfg.Database.MapSizeBytes = int64(v)
					}
				}
			}
		case "server":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "listen":
					if s, ok := firstStringArg(cn); ok {
						cfg.Server.ListenAddr = s
					}
				case "admin_user":
					if s, ok := firstStringArg(cn); ok {
						cfg.Server.AdminUser = s
					}
				case "admin_password":
					if s, ok := firstStringArg(cn); ok {
						cfg.Server.AdminPassword = s
					}
				case "result_limit":
					if v, ok := firstIntArg(cn); ok {
						cfg.Server.ResultLimit = v
					}
				}
			}
		case "indexing":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Indexing.Workers = v
					}
				case "backoff":
					if s, ok := firstStringArg(cn); ok {
						if d, err := time.ParseDuration(s); err == nil {
							cfg.Indexing.BackoffInterval = d
						}
					}
				case "fetch_timeout":
					if s, ok := firstStringArg(cn); ok {
						if d, err := time.ParseDuration(s); err == nil {
							cfg.Indexing.FetchTimeout = d
						}
					}
				}
			}
		}
	}

	return nil
}

// Helper functions leveraging the kdl-go document model.
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

// parseSize handles size strings like "10MB", "500KB", "1GB".
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}
