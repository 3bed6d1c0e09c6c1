// amalgamate merges the headers and sources of an ordered list of module
// directories into <out>/<name>.h and <out>/<name>.cpp.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"fortio.org/cli"
	"fortio.org/log"
	"github.com/ldemailly/amalgamate/amalgam"
	"github.com/ldemailly/amalgamate/graph"
)

var (
	configFlag   = flag.String("config", "", "Config `file` (.json or .toml), default amalgamate.json or amalgamate.toml if present")
	rootFlag     = flag.String("root", defaultRoot, "Directory containing the module directories")
	outFlag      = flag.String("out", defaultOutDir, "Output `directory`, created if missing")
	nameFlag     = flag.String("name", defaultName, "Base name of the merged files")
	extFlag      = flag.String("ext", amalgam.DefaultSourceExt, "Extension of the merged implementation file")
	classifyFlag = flag.String("classify", string(amalgam.ClassifySubstring), "File classification: substring (.h anywhere in the name wins) or extension")
	atomicFlag   = flag.Bool("atomic", true, "Write each merged file to a temp file and rename it into place")
	checkFlag    = flag.Bool("check", false, "Don't write anything, exit 1 and show a diff if the merged files are out of date")
	listFlag     = flag.Bool("list", false, "Only print the collected headers and sources, in merge order")
	graphFlag    = flag.Bool("graph", false, "Print the local include graph in DOT format instead of writing")
	left2Right   = flag.Bool("left2right", false, "Use left-to-right layout for -graph")
	githubFlag   = flag.String("github", "", "Read the modules from a GitHub repository, `owner/repo[@ref]`, instead of the local disk")
	noCacheFlag  = flag.Bool("nocache", false, "Don't use the on-disk cache of GitHub responses")
	clearCache   = flag.Bool("clear-cache", false, "Clear the GitHub response cache before running")
	cacheDirFlag = flag.String("cache-dir", "", "GitHub response cache `directory` (default under the user cache dir)")
)

func main() {
	cli.ArgsHelp = "[module1 module2...]\nModules are merged in the order given (or from the config file)."
	cli.MinArgs = 0
	cli.MaxArgs = -1
	cli.Main()
	os.Exit(Main())
}

// Main runs with the parsed command line and returns the exit code.
func Main() int {
	cfg, err := buildConfig(flag.CommandLine)
	if err != nil {
		return fail(err)
	}
	fsys, err := sourceFS(context.Background(), cfg)
	if err != nil {
		return fail(err)
	}
	mode, _ := amalgam.ParseClassifyMode(cfg.Classify) // checked by Validate

	collector := &amalgam.Collector{FS: fsys, Layout: cfg.Layout(), Mode: mode}
	files, err := collector.Collect()
	if err != nil {
		return fail(err)
	}
	log.Infof("Collected %d headers and %d sources from %d modules", len(files.Headers), len(files.Sources), len(cfg.Modules))

	if *listFlag {
		for _, p := range files.Headers {
			fmt.Printf("header %s\n", p)
		}
		for _, p := range files.Sources {
			fmt.Printf("source %s\n", p)
		}
		return 0
	}

	g, err := graph.Build(fsys, files)
	if err != nil {
		return fail(err)
	}
	if n := g.LogWarnings(); n > 0 {
		log.Warnf("%d include problems found, the merged files may not compile", n)
	}
	if *graphFlag {
		if err := g.WriteDot(os.Stdout, *left2Right); err != nil {
			return fail(err)
		}
		return 0
	}

	a := &amalgam.Amalgamator{FS: fsys, Out: cfg.Output(), Atomic: cfg.Atomic}
	if *checkFlag {
		return check(a, files)
	}
	res, err := a.Write(files)
	if err != nil {
		return fail(err)
	}
	log.Infof("Done: %s and %s, %d local includes elided", res.HeaderPath, res.SourcePath, res.Elided)
	if digest, err := amalgam.Digest(fsys, files); err == nil {
		log.Infof("Inputs digest %s", digest)
	} else {
		log.Warnf("Unable to compute inputs digest: %v", err)
	}
	return 0
}

// buildConfig layers defaults, the -config file, the environment and the
// flags set in fset.
func buildConfig(fset *flag.FlagSet) (Config, error) {
	cfg := defaultConfig()
	configPath := ""
	if f := fset.Lookup("config"); f != nil {
		configPath = f.Value.String()
	}
	if err := loadConfigFile(&cfg, configPath); err != nil {
		return cfg, err
	}
	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := applyFlags(&cfg, fset); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func sourceFS(ctx context.Context, cfg Config) (amalgam.FS, error) {
	if cfg.GitHub == "" {
		return amalgam.OS{}, nil
	}
	spec, err := parseRepoSpec(cfg.GitHub)
	if err != nil {
		return nil, err
	}
	dir := *cacheDirFlag
	if dir == "" {
		if dir, err = userCacheDir(); err != nil {
			return nil, err
		}
	}
	cache, err := newDiskCache(dir, !*noCacheFlag)
	if err != nil {
		return nil, err
	}
	if *clearCache {
		if err := cache.clear(); err != nil {
			return nil, err
		}
		if cache, err = newDiskCache(dir, !*noCacheFlag); err != nil {
			return nil, err
		}
	}
	log.Infof("Reading modules from github.com/%s/%s (ref %q)", spec.Owner, spec.Repo, spec.Ref)
	return newGitHubFS(ctx, NewClientWrapper(newGitHubClient(ctx), cache), spec)
}

func check(a *amalgam.Amalgamator, files amalgam.Files) int {
	header, source, err := a.Render(files)
	if err != nil {
		return fail(err)
	}
	stale := 0
	for _, art := range []struct {
		path string
		data []byte
	}{
		{a.Out.HeaderPath(), header},
		{a.Out.SourcePath(), source},
	} {
		diff, ok, err := amalgam.Check(art.path, art.data)
		if err != nil {
			return fail(err)
		}
		if ok {
			log.Infof("%s is up to date", art.path)
			continue
		}
		stale++
		log.Warnf("%s is out of date", art.path)
		fmt.Printf("--- %s\n+++ %s (regenerated)\n%s", art.path, art.path, diff)
	}
	if stale > 0 {
		return 1
	}
	return 0
}

func fail(err error) int {
	log.Errf("%v", err)
	return 1
}
