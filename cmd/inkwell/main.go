// Package main is the entry point for the Inkwell editor.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/hollisb/inkwell/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath string
		pluginDirs string
		logLevel   string
		listOnly   bool
		enableName string
		disable    string
		showVer    bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&pluginDirs, "plugin-dirs", "", "Comma-separated plugin directories (overrides config)")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&listOnly, "list", false, "List plugins and their states, then exit")
	flag.StringVar(&enableName, "enable", "", "Enable a plugin, then exit")
	flag.StringVar(&disable, "disable", "", "Disable a plugin, then exit")
	flag.BoolVar(&showVer, "version", false, "Show version information")
	flag.BoolVar(&showVer, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Inkwell - plugin-assembled text editor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: inkwell [options] [files...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVer {
		fmt.Printf("Inkwell %s (%s)\n", version, commit)
		return 0
	}

	opts := app.Options{
		ConfigPath: configPath,
		LogLevel:   logLevel,
	}
	if pluginDirs != "" {
		opts.PluginDirs = strings.Split(pluginDirs, ",")
	}

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	if err := application.Bootstrap(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	switch {
	case listOnly:
		printStatus(application)
		return 0
	case enableName != "":
		if err := application.Enable(enableName); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	case disable != "":
		if err := application.Disable(disable); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	printReport(application)

	// The GUI event loop would take over here; the plugin core is the
	// scope of this binary for now.
	return 0
}

// printReport writes the startup report: every attempted plugin's final
// state and, for failures, the captured error detail.
func printReport(application *app.Application) {
	report := application.Report()
	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Printf("%-24s %-16s %v\n", res.Name, res.State, res.Err)
		} else {
			fmt.Printf("%-24s %s\n", res.Name, res.State)
		}
	}
	for _, name := range report.Skipped {
		fmt.Printf("%-24s skipped\n", name)
	}
}

func printStatus(application *app.Application) {
	for _, res := range application.Status() {
		if res.Err != nil {
			fmt.Printf("%-24s %-16s %v\n", res.Name, res.State, res.Err)
		} else {
			fmt.Printf("%-24s %s\n", res.Name, res.State)
		}
	}
}
