package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/kolkov/condsync/syncx"
)

// versionCommand prints the library version. With -check v it exits
// non-zero unless code written against v can use this build.
func versionCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	fs.SetOutput(stderr)
	check := fs.String("check", "", "required semantic version")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	info := syncx.GetInfo()
	fmt.Fprintf(stdout, "condstress version %s (%s)\n", info.Version, info.Algorithm)

	if *check != "" && !syncx.Compatible(*check) {
		fmt.Fprintf(stderr, "Error: %s is not compatible with %s\n", *check, info.Version)
		return 1
	}
	return 0
}
