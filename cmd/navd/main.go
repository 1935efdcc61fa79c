// Command navd is the diagnostic and offline-build entry point for the
// navigation module, grounded in the teacher's own main.go (the same
// gorilla/mux + rs/cors HTTP pair) and its examples/build_nav,
// examples/query_nav flag-driven CLIs. It has no CLI framework, matching
// the retrieved corpus: the standard flag package parses each subcommand.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "query":
		err = runQuery(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "navd: unknown subcommand %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "navd: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `navd builds, queries, and serves diagnostics for navigation data.

Usage:

  navd build  -geometry <file> -out <file> [options]
  navd query  -nav <file> -start x,y,z -goal x,y,z [options]
  navd serve  -nav <file> -addr :8080

Run "navd <subcommand> -h" for the flags each subcommand accepts.`)
}
