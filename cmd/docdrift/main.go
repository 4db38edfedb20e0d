// Package main provides the entry point for the docdrift CLI.
//
// docdrift records the page structure of a documentation site and later
// reports which recorded pages disappeared or changed their title.
//
// Usage:
//
//	docdrift snapshot https://docs.example.com
//	docdrift diff --path snapshots/docs.example.com-abc123.json --url https://docs.example.com
//
// See --help for all available options.
package main

func main() {
	Execute()
}
