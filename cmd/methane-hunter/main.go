package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/zoro1324/Methane-Shadow-Hunter/internal/app"
	"github.com/zoro1324/Methane-Shadow-Hunter/internal/log"
	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "", "Path to YAML audit configuration; runs the built-in demo scenarios when empty")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("methane-hunter %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Load configuration
	provider, err := loadProvider(*cfgFile)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	defer provider.Close()

	// Create and run the application
	application := app.New(provider, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}

func loadProvider(cfgFile string) (config.ConfigProvider, error) {
	if cfgFile == "" {
		log.Info("no -config given, auditing the built-in demo scenarios")
		return config.NewStaticProvider(demoConfig()), nil
	}

	filename, _ := filepath.Abs(cfgFile)
	log.Debugf("reading audit configuration from %s", filename)
	provider := config.NewYAMLProvider(filename)
	cfg, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}
	log.Infof("loaded %d audit scenarios from %s", len(cfg.Scenarios), filename)
	return provider, nil
}

// demoConfig covers the severity range: a small wellhead leak, a mid-size
// compressor seal failure, and a flare outage at super-emitter scale.
func demoConfig() *config.ConfigData {
	return &config.ConfigData{
		Site: config.SiteData{
			Name:      "Hassi Messaoud Demo Field",
			Latitude:  31.68,
			Longitude: 6.07,
		},
		Scenarios: []config.ScenarioData{
			{Name: "wellhead-7", ClaimedRateKgHr: 12, SourceHeight: 2, Receptors: 200, NoiseLevel: 0.05},
			{Name: "compressor-2", ClaimedRateKgHr: 180, SourceHeight: 5, Receptors: 200, NoiseLevel: 0.05},
			{Name: "flare-stack", ClaimedRateKgHr: 650, SourceHeight: 30, Receptors: 250, DomainM: 5000, NoiseLevel: 0.05},
		},
	}
}
