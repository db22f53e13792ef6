package main

import (
	"flag"
	"fmt"
	"os"

	infraconfig "github.com/huzhengnan/website-monitor-sub000/infrastructure/config"
	"github.com/huzhengnan/website-monitor-sub000/internal/bootstrap"
)

var version = "dev"

func main() {
	configPath := flag.String("config", infraconfig.GetConfigPath("config.yml"), "Path to configuration file")
	flag.Parse()

	if err := bootstrap.Start(*configPath, version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
