package main

import (
	"fmt"
	"os"

	"github.com/danmuck/wireline/internal/logging"
	"github.com/danmuck/wireline/internal/relay"
)

func main() {
	logging.ConfigureRuntime()

	cfg := relay.DefaultServiceConfig()
	if path := configPath(); path != "" {
		loaded, err := loadServiceConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "wirelined: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	svc := relay.NewServiceWithConfig(cfg)
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "wirelined: %v\n", err)
		os.Exit(1)
	}
}

func configPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return os.Getenv("WIRELINED_CONFIG")
}
