// Package main is the qfactor command line interface: factor a single
// number through the simulated pipeline and print the result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aristath/qfactor/internal/shor"
	"github.com/aristath/qfactor/internal/simulator"
	"github.com/aristath/qfactor/pkg/logger"
)

func main() {
	var (
		seed      = flag.Uint64("seed", 0, "deterministic seed for base selection and sampling (0 = random)")
		attempts  = flag.Int("attempts", shor.DefaultMaxAttempts, "maximum factoring attempts")
		retries   = flag.Int("retries", shor.DefaultOrderRetries, "order-finding retries per attempt")
		maxQubits = flag.Int("max-qubits", 26, "ceiling on simulated circuit width")
		logLevel  = flag.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
		asJSON    = flag.Bool("json", false, "print the full result as JSON")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] N\n\nFactor N on a simulated quantum computer.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	n, err := strconv.ParseUint(flag.Arg(0), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qfactor: %q is not a positive integer\n", flag.Arg(0))
		os.Exit(2)
	}

	log := logger.New(logger.Config{Level: *logLevel, Pretty: true})

	backendOpts := []simulator.Option{simulator.WithMaxQubits(*maxQubits)}
	if *seed != 0 {
		backendOpts = append(backendOpts, simulator.WithSeed(*seed))
	}
	backend := simulator.NewStatevector(log, backendOpts...)

	driverOpts := []shor.DriverOption{
		shor.WithMaxAttempts(*attempts),
		shor.WithDriverOrderRetries(*retries),
	}
	if *seed != 0 {
		driverOpts = append(driverOpts, shor.WithSeed(*seed))
	}
	driver := shor.NewDriver(backend, log, driverOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := driver.Factor(ctx, n)
	if err != nil {
		switch {
		case errors.Is(err, shor.ErrInvalidInput):
			fmt.Fprintf(os.Stderr, "qfactor: %d has no nontrivial factors\n", n)
		case errors.Is(err, shor.ErrFactorizationFailed):
			fmt.Fprintf(os.Stderr, "qfactor: gave up on %d after %d attempts; try again or raise -attempts\n", n, *attempts)
		default:
			fmt.Fprintf(os.Stderr, "qfactor: %v\n", err)
		}
		os.Exit(1)
	}

	if *asJSON {
		out := map[string]interface{}{
			"n":            result.N,
			"p":            result.P,
			"q":            result.Q,
			"method":       result.Method,
			"attempts":     result.Attempts,
			"quantum_runs": result.QuantumRuns,
			"elapsed_ms":   result.Elapsed.Milliseconds(),
		}
		if result.Method == shor.MethodQuantum {
			out["base"] = result.Base
			out["order"] = result.Order
			out["sample"] = result.Sample
		}
		json.NewEncoder(os.Stdout).Encode(out)
		return
	}

	fmt.Printf("%d = %d * %d  (%s, %d attempts, %s)\n",
		result.N, result.P, result.Q, result.Method, result.Attempts, result.Elapsed.Round(time.Millisecond))
}
