// Package main implements the condstress CLI tool.
//
// condstress drives each synchronization primitive with many goroutines,
// checks the primitive's guarantees while it runs, and reports timings
// and counts. Metrics can also be pushed to statsd or DogStatsD.
//
// Usage:
//
//	condstress barrier -parties 8 -iterations 500
//	condstress semaphore -workers 32 -parties 4
//	condstress futures -workers 4 -statsd 127.0.0.1:8125
//	condstress version -check v0.1.0
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	command := args[0]

	switch command {
	case "barrier", "event", "semaphore", "mrsw", "futures":
		return stressCommand(command, args[1:], stdout, stderr)
	case "version", "--version", "-v":
		return versionCommand(args[1:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `condstress - stress tool for condsync primitives

USAGE:
    condstress <command> [flags]

COMMANDS:
    barrier      Cohorts of -parties goroutines pass a Barrier -iterations times
    event        -workers goroutines wait on an Event that is posted and cleared
    semaphore    -workers goroutines share a Semaphore with -parties permits
    mrsw         -workers goroutines mix reads, writes and downgrades on an MRSWLock
    futures      An executor with -workers workers runs -iterations tasks
    version      Show version information
    help         Show this help message

FLAGS:
    -workers n       goroutines (or executor workers) to start (default 8)
    -iterations n    operations per goroutine, rounds, or tasks (default 1000)
    -parties n       barrier cohort size or semaphore permits (default 4)
    -timeout d       give up after this long (default 30s)
    -statsd addr     push metrics to a statsd daemon at addr
    -dogstatsd addr  push metrics to a DogStatsD agent at addr
    -prefix s        metric name prefix (default "condstress")
    -tags list       comma-separated DogStatsD tags
    -dump            print every metric after the run

EXAMPLES:
    condstress mrsw -workers 16 -iterations 5000
    condstress futures -dogstatsd 127.0.0.1:8125 -tags env:ci

`)
}
