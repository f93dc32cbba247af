/*
Copyright 2024 The Chronos Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/Oabraham1/chronos/internal/config"
	"github.com/Oabraham1/chronos/pkg/gpu"
	"github.com/Oabraham1/chronos/pkg/lockstore"
	"github.com/Oabraham1/chronos/pkg/metricscollector"
	"github.com/Oabraham1/chronos/pkg/partition"
	"github.com/Oabraham1/chronos/pkg/platform"
	"github.com/Oabraham1/chronos/pkg/registry"
	"github.com/Oabraham1/chronos/pkg/server"
	"github.com/Oabraham1/chronos/pkg/signals"
	"github.com/Oabraham1/chronos/pkg/util"
	"github.com/Oabraham1/chronos/pkg/version"
)

const usage = `chronos - time-bounded GPU partition manager

Usage:
  chronos create <deviceIdx> <memoryFraction> <duration>   Claim a fraction of a device for a number of seconds
  chronos list                                             List active partitions
  chronos release <partitionId>                            Release a partition you own
  chronos stats                                            Show per-device statistics
  chronos available <deviceIdx>                            Show a device's available memory percentage
  chronos serve                                            Run the manager with the HTTP status surface
  chronos help                                             Show this help

Flags:
  --config <path>   Configuration file (default chronos.yaml when present)
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("chronos", pflag.ContinueOnError)
	configPath := flags.String("config", "chronos.yaml", "path to the configuration file")
	if err := flags.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, usage)
		return 1
	}

	configExplicit := flags.Changed("config")
	cfg, err := config.Load(*configPath, configExplicit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chronos: %v\n", err)
		return 1
	}

	log, flush, err := buildLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chronos: %v\n", err)
		return 1
	}
	defer flush()

	commandArgs := flags.Args()
	if len(commandArgs) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 1
	}
	command := commandArgs[0]
	operands := commandArgs[1:]

	if command == "help" {
		fmt.Print(usage)
		return 0
	}

	if err := util.ConfigureMaxProcs(log); err != nil {
		log.Error(err, "failed to set GOMAXPROCS")
	}

	metricscollector.NewMetricsCollectors(true)

	manager, err := buildManager(cfg, log)
	if err != nil {
		log.Error(err, "failed to start the partition manager")
		return 1
	}
	defer manager.Close()

	switch command {
	case "create":
		return runCreate(manager, log, operands)
	case "list":
		fmt.Print(partition.FormatListing(manager.List()))
		return 0
	case "release":
		return runRelease(manager, log, operands)
	case "stats":
		fmt.Print(partition.FormatDeviceStats(manager.DeviceStats()))
		return 0
	case "available":
		return runAvailable(manager, log, operands)
	case "serve":
		return runServe(manager, cfg, log)
	default:
		log.Info("unknown command", "command", command)
		fmt.Fprint(os.Stderr, usage)
		return 1
	}
}

func buildLogger(level string) (logr.Logger, func(), error) {
	zapConfig := zap.NewProductionConfig()
	switch level {
	case "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	zapLog, err := zapConfig.Build()
	if err != nil {
		return logr.Logger{}, nil, err
	}

	log := zapr.NewLogger(zapLog).WithValues(
		"run_id", uuid.NewString(),
		"version", version.Version,
	)
	return log, func() { _ = zapLog.Sync() }, nil
}

func buildEnumerator(cfg config.Config, log logr.Logger) gpu.Enumerator {
	staticDevices := make([]gpu.DeviceInfo, 0, len(cfg.StaticDevices))
	for _, d := range cfg.StaticDevices {
		staticDevices = append(staticDevices, gpu.DeviceInfo{
			Name:        d.Name,
			Vendor:      d.Vendor,
			Version:     d.Version,
			TotalMemory: d.TotalMemory,
		})
	}

	switch cfg.Enumerator {
	case "nvml":
		return gpu.NewNVMLEnumerator(log)
	case "sysfs":
		return gpu.NewSysfsEnumerator(gpu.DefaultSysfsRoot, log)
	case "static":
		return gpu.NewStaticEnumerator(staticDevices)
	default:
		return gpu.NewChainEnumerator(
			gpu.NewNVMLEnumerator(log),
			gpu.NewSysfsEnumerator(gpu.DefaultSysfsRoot, log),
			gpu.NewStaticEnumerator(staticDevices),
		)
	}
}

func buildManager(cfg config.Config, log logr.Logger) (*partition.Manager, error) {
	plat := platform.NewOSPlatform()

	reg, err := registry.New(buildEnumerator(cfg, log), log.WithName("registry"))
	if err != nil {
		return nil, err
	}

	locks := lockstore.NewFileStore(cfg.LockDir, plat, log.WithName("lockstore"))
	manager := partition.NewManager(reg, locks, plat, log.WithName("partition"),
		partition.WithMonitorPeriod(cfg.Period()))
	return manager, nil
}

func runCreate(manager *partition.Manager, log logr.Logger, operands []string) int {
	if len(operands) != 3 {
		log.Info("create requires <deviceIdx> <memoryFraction> <duration>")
		return 1
	}

	deviceIdx, err := strconv.Atoi(operands[0])
	if err != nil {
		log.Info("device index is not an integer", "argument", operands[0])
		return 1
	}
	fraction, err := strconv.ParseFloat(operands[1], 32)
	if err != nil {
		log.Info("memory fraction is not a number", "argument", operands[1])
		return 1
	}
	duration, err := strconv.ParseInt(operands[2], 10, 64)
	if err != nil {
		log.Info("duration is not an integer", "argument", operands[2])
		return 1
	}

	id, err := manager.Create(deviceIdx, float32(fraction), duration)
	if err != nil {
		log.Error(err, "create failed")
		return 1
	}

	fmt.Printf("Created partition: %s\n", id)
	return 0
}

func runRelease(manager *partition.Manager, log logr.Logger, operands []string) int {
	if len(operands) != 1 {
		log.Info("release requires <partitionId>")
		return 1
	}

	if err := manager.Release(operands[0]); err != nil {
		log.Error(err, "release failed", "partition", operands[0])
		return 1
	}

	fmt.Printf("Released partition: %s\n", operands[0])
	return 0
}

func runAvailable(manager *partition.Manager, log logr.Logger, operands []string) int {
	if len(operands) != 1 {
		log.Info("available requires <deviceIdx>")
		return 1
	}

	deviceIdx, err := strconv.Atoi(operands[0])
	if err != nil {
		log.Info("device index is not an integer", "argument", operands[0])
		return 1
	}

	value, err := manager.AvailableFraction(deviceIdx)
	if err != nil {
		log.Error(err, "available failed")
		return 1
	}

	fmt.Printf("Available: %.2f%%\n", value)
	return 0
}

func runServe(manager *partition.Manager, cfg config.Config, log logr.Logger) int {
	ctx := signals.Context(log)

	srv := server.New(manager, cfg.Server.Addr, log.WithName("server"))

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Run(ctx)
	})

	if err := group.Wait(); err != nil {
		log.Error(err, "serve failed")
		return 1
	}
	return 0
}
