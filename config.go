package dirpack

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config drives one archive creation run. It is immutable once loaded.
//
// When Ignore is non-empty it is authoritative; otherwise the rules come
// from IgnoreFile; with neither, no filtering occurs.
type Config struct {
	// Format is the archive format name: "plain", "tar.gz", "zip" or "lz4".
	Format string `toml:"format"`
	// OutputName overrides the default output name (the base name of the
	// archived directory). The format extension is always appended.
	OutputName string `toml:"output_name,omitempty"`
	// Ignore is an ordered list of gitignore-style rules.
	Ignore []string `toml:"ignore,omitempty"`
	// IgnoreFile points to a line-oriented rules file, used only when
	// Ignore is empty.
	IgnoreFile string `toml:"ignore_file,omitempty"`

	// ignoreFileRules holds the rules read from IgnoreFile at load time.
	ignoreFileRules []string
}

// DefaultConfigName is the configuration file the CLI looks for.
const DefaultConfigName = "dirpack.toml"

// defaultIgnore is the rule set written by WriteDefaultConfig.
var defaultIgnore = []string{
	"target/",
	"*.tmp",
	"*.log",
	".DS_Store",
	"Thumbs.db",
	"*.swp",
	"*.swo",
	"*~",
	".git/",
	".svn/",
	".hg/",
	"node_modules/",
	"__pycache__/",
	".pytest_cache/",
	".venv/",
	"venv/",
	"env/",
	"*.pyc",
	"*.pyo",
	"*.pyd",
	".idea/",
	".vscode/",
	"*.iml",
}

// DefaultConfig returns the configuration written by WriteDefaultConfig:
// tar.gz format with the standard ignore set.
func DefaultConfig() *Config {
	return &Config{
		Format: "tar.gz",
		Ignore: append([]string(nil), defaultIgnore...),
	}
}

// LoadConfig reads and validates a TOML configuration file. When the
// configuration names an ignore file, its rules are read here so the
// returned Config is fully resolved; a missing ignore file is not an error.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: read %s: %v", ErrConfig, path, err)
		}
		return nil, fmt.Errorf("%w: parse %s: %v", ErrConfig, path, err)
	}

	if cfg.Format == "" {
		return nil, fmt.Errorf("%w: %s: format is required", ErrConfig, path)
	}
	if _, err := ParseFormat(cfg.Format); err != nil {
		return nil, err
	}

	if cfg.IgnoreFile != "" {
		rules, err := loadRulesFile(cfg.IgnoreFile)
		if err == nil {
			cfg.ignoreFileRules = rules
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: ignore file %s: %v", ErrConfig, cfg.IgnoreFile, err)
		}
	}

	return &cfg, nil
}

// Rules returns the authoritative rule list: Ignore when non-empty, else
// the rules read from IgnoreFile, else nil.
func (c *Config) Rules() []string {
	if len(c.Ignore) > 0 {
		return c.Ignore
	}
	return c.ignoreFileRules
}

// ResolveOutputName returns the archive name without extension: OutputName
// when set, otherwise the base name of root.
func (c *Config) ResolveOutputName(root string) string {
	if c.OutputName != "" {
		return c.OutputName
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "archive"
	}
	base := filepath.Base(abs)
	if base == "/" || base == "." {
		return "archive"
	}
	return base
}

// loadRulesFile reads one rule per line, skipping blanks and "#" comments.
func loadRulesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseRuleLines(f)
}

// parseRuleLines parses line-oriented ignore rules from r.
func parseRuleLines(r io.Reader) ([]string, error) {
	var rules []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

// WriteDefaultConfig writes the documented default configuration file.
// It refuses to overwrite an existing file.
func WriteDefaultConfig(path string) error {
	if path == "" {
		path = DefaultConfigName
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s already exists", ErrConfig, path)
	}

	var b strings.Builder
	b.WriteString("# dirpack configuration\n\n")
	b.WriteString("# Archive format: \"plain\", \"tar.gz\", \"zip\" or \"lz4\"\n")
	b.WriteString("format = \"tar.gz\"\n\n")
	b.WriteString("# Output name (optional, defaults to the directory name)\n")
	b.WriteString("# output_name = \"my_archive\"\n\n")
	b.WriteString("# Ignore rules, gitignore syntax\n")
	b.WriteString("ignore = [\n")
	for _, rule := range defaultIgnore {
		fmt.Fprintf(&b, "    %q,\n", rule)
	}
	b.WriteString("]\n\n")
	b.WriteString("# Rules file used when \"ignore\" is empty (optional)\n")
	b.WriteString("# ignore_file = \"./.gitignore\"\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
