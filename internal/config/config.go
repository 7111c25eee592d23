// Package config handles dexgraph.toml configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "dexgraph.toml"

// Config represents a dexgraph.toml file.
type Config struct {
	Framework string `toml:"framework" json:"framework,omitempty" jsonschema:"title=Framework,description=Path to the framework .dex or .apk"`
	APILevel  int    `toml:"api_level" json:"api_level,omitempty" jsonschema:"title=API Level,description=Android API level used to locate android-<api>.dex under data_dir"`
	DataDir   string `toml:"data_dir" json:"data_dir,omitempty" jsonschema:"title=Data Directory,description=Directory holding framework images"`
	Translate bool   `toml:"translate" json:"translate" jsonschema:"title=Translate,description=Decode method bodies into instructions,default=true"`
	Workers   int    `toml:"workers" json:"workers,omitempty" jsonschema:"title=Workers,description=Parallel dex decoding limit (0 means GOMAXPROCS)"`
	LogFile   string `toml:"log_file" json:"log_file,omitempty" jsonschema:"title=Log File,description=Write process logs to this file instead of stderr"`
	Debug     bool   `toml:"debug" json:"debug,omitempty" jsonschema:"title=Debug,description=Enable debug logging"`

	Neo4j  Neo4j  `toml:"neo4j" json:"neo4j,omitempty"`
	SQLite SQLite `toml:"sqlite" json:"sqlite,omitempty"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-" json:"-"`
}

// Neo4j configures the graph database export.
type Neo4j struct {
	URI      string `toml:"uri" json:"uri,omitempty" jsonschema:"title=URI,default=neo4j://localhost:7687"`
	User     string `toml:"user" json:"user,omitempty" jsonschema:"title=User,default=neo4j"`
	Password string `toml:"password" json:"password,omitempty" jsonschema:"title=Password"`
}

// SQLite configures the relational export.
type SQLite struct {
	Path string `toml:"path" json:"path,omitempty" jsonschema:"title=Path,description=Database file,default=dexgraph.db"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Translate: true,
		DataDir:   "data",
		Neo4j:     Neo4j{URI: "neo4j://localhost:7687", User: "neo4j"},
		SQLite:    SQLite{Path: "dexgraph.db"},
	}
}

// Load parses the configuration file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if c.Workers < 0 {
		return nil, fmt.Errorf("%s: workers must not be negative, got %d", path, c.Workers)
	}
	c.Path = path
	return c, nil
}

// Find loads the explicit path when given, else dexgraph.toml in dir,
// else the defaults.
func Find(explicit, dir string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// FrameworkPath returns the framework image to load, or "" when none is
// configured.
func (c *Config) FrameworkPath() string {
	if c.Framework != "" {
		return c.Framework
	}
	if c.APILevel > 0 {
		return filepath.Join(c.DataDir, "android-"+strconv.Itoa(c.APILevel)+".dex")
	}
	return ""
}

// WorkerLimit resolves Workers against the machine.
func (c *Config) WorkerLimit() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
