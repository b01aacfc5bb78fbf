package main

import (
	"context"
	"driverless-backend/internal/config"
	"driverless-backend/internal/models"
	"driverless-backend/internal/scenario"
	"driverless-backend/internal/services"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"
)

func main() {
	file := flag.String("file", "", "scenario file to run")
	format := flag.String("format", "yaml", "transcript format: yaml or json")
	flag.Parse()

	if *file == "" && flag.NArg() > 0 {
		*file = flag.Arg(0)
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: scenario [-format yaml|json] -file <scenario.yaml>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	s, err := scenario.Load(*file)
	if err != nil {
		log.Fatalf("Failed to load scenario: %v", err)
	}

	admin := models.User{
		Name:     cfg.Admin.Name,
		Surname:  cfg.Admin.Surname,
		Username: cfg.Admin.Username,
	}
	if s.Admin != nil {
		admin = *s.Admin
	}

	os.Exit(run(s, admin, *format))
}

func run(s *scenario.Scenario, admin models.User, format string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	unit := services.NewControlUnit(admin)
	results, runErr := scenario.NewRunner(unit).Run(ctx, s)

	if err := writeTranscript(format, results); err != nil {
		log.Printf("Failed to write transcript: %v", err)
		return 1
	}
	if runErr != nil {
		log.Printf("Scenario %q ended early: %v", s.Name, runErr)
		return 1
	}
	return 0
}

func writeTranscript(format string, results []scenario.Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(results)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
