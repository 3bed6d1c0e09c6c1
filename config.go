package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/log"
	"fortio.org/struct2env"
	"github.com/joho/godotenv"
	"github.com/ldemailly/amalgamate/amalgam"
	"github.com/pelletier/go-toml/v2"
)

const (
	defaultRoot   = "src"
	defaultOutDir = "lib"
	defaultName   = "lib"
	envPrefix     = "AMALGAMATE_"
)

// Config files looked up in the working directory when -config is not given.
var defaultConfigFiles = []string{"amalgamate.json", "amalgamate.toml"}

// Config is everything a run needs. Precedence, lowest first: defaults,
// config file, environment (.env included), flags and arguments.
type Config struct {
	Root      string   `json:"root" toml:"root"`
	Modules   []string `json:"modules" toml:"modules"`
	OutDir    string   `json:"out_dir" toml:"out_dir"`
	Name      string   `json:"name" toml:"name"`
	SourceExt string   `json:"source_ext" toml:"source_ext"`
	Classify  string   `json:"classify" toml:"classify"`
	Atomic    bool     `json:"atomic" toml:"atomic"`
	GitHub    string   `json:"github" toml:"github"` // owner/repo[@ref]
}

// envConfig mirrors Config for AMALGAMATE_* variables; lists are comma separated.
type envConfig struct {
	Root      string `env:"ROOT"`
	Modules   string `env:"MODULES"`
	OutDir    string `env:"OUT_DIR"`
	Name      string `env:"NAME"`
	SourceExt string `env:"SOURCE_EXT"`
	Classify  string `env:"CLASSIFY"`
	Atomic    string `env:"ATOMIC"`
	GitHub    string `env:"GITHUB"`
}

func defaultConfig() Config {
	return Config{
		Root:      defaultRoot,
		OutDir:    defaultOutDir,
		Name:      defaultName,
		SourceExt: amalgam.DefaultSourceExt,
		Classify:  string(amalgam.ClassifySubstring),
		Atomic:    true,
	}
}

// loadConfigFile overlays the file at path on cfg. An empty path tries the
// default names and is not an error when none exist.
func loadConfigFile(cfg *Config, path string) error {
	if path == "" {
		for _, name := range defaultConfigFiles {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
		if path == "" {
			log.LogVf("No config file found, using defaults")
			return nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return amalgam.Configf("reading %s: %v", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return amalgam.Configf("%s: unsupported config format (want .json or .toml)", path)
	}
	if err != nil {
		return amalgam.Configf("parsing %s: %v", path, err)
	}
	log.Infof("Loaded config from %s", path)
	return nil
}

// loadEnv reads .env (if present) into the process environment without
// overriding what is already set, then overlays AMALGAMATE_* values on cfg.
func loadEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return amalgam.Configf(".env: %v", err)
	}
	var env envConfig
	if errs := struct2env.SetFromEnv(envPrefix, &env); len(errs) > 0 {
		return amalgam.Configf("environment: %v", errors.Join(errs...))
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Root, env.Root)
	set(&cfg.OutDir, env.OutDir)
	set(&cfg.Name, env.Name)
	set(&cfg.SourceExt, env.SourceExt)
	set(&cfg.Classify, env.Classify)
	set(&cfg.GitHub, env.GitHub)
	if env.Modules != "" {
		cfg.Modules = splitList(env.Modules)
	}
	if env.Atomic != "" {
		b, err := parseBool(env.Atomic)
		if err != nil {
			return amalgam.Configf("%sATOMIC: %v", envPrefix, err)
		}
		cfg.Atomic = b
	}
	return nil
}

// applyFlags overlays the flags that were explicitly set, and the module
// arguments if any.
func applyFlags(cfg *Config, fset *flag.FlagSet) error {
	var err error
	fset.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "root":
			cfg.Root = v
		case "out":
			cfg.OutDir = v
		case "name":
			cfg.Name = v
		case "ext":
			cfg.SourceExt = v
		case "classify":
			cfg.Classify = v
		case "github":
			cfg.GitHub = v
		case "atomic":
			cfg.Atomic, err = parseBool(v)
		}
	})
	if err != nil {
		return amalgam.Configf("-atomic: %v", err)
	}
	if fset.NArg() > 0 {
		cfg.Modules = fset.Args()
	}
	return nil
}

func (c Config) Validate() error {
	if len(c.Modules) == 0 {
		return amalgam.Configf("no modules: pass them as arguments, in the config file or in %sMODULES", envPrefix)
	}
	for _, m := range c.Modules {
		if strings.TrimSpace(m) == "" {
			return amalgam.Configf("empty module name in %q", c.Modules)
		}
	}
	if c.OutDir == "" {
		return amalgam.Configf("empty output directory")
	}
	if c.Name == "" || strings.ContainsAny(c.Name, `/\`) {
		return amalgam.Configf("invalid library name %q", c.Name)
	}
	if c.SourceExt == "" || strings.ContainsAny(c.SourceExt, `./\`) {
		return amalgam.Configf("invalid source extension %q", c.SourceExt)
	}
	if _, err := amalgam.ParseClassifyMode(c.Classify); err != nil {
		return err
	}
	if c.GitHub != "" {
		if _, err := parseRepoSpec(c.GitHub); err != nil {
			return amalgam.Configf("%v", err)
		}
	}
	return nil
}

func (c Config) Layout() amalgam.Layout {
	return amalgam.Layout{Root: c.Root, Modules: c.Modules}
}

func (c Config) Output() amalgam.Output {
	return amalgam.Output{Dir: c.OutDir, Name: c.Name, SourceExt: c.SourceExt}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "yes", "on":
		return true, nil
	case "0", "f", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
