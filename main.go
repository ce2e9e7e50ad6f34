// Package main is the entry point for the ripen CLI.
package main

import "github.com/ajxudir/ripen/cmd"

func main() {
	cmd.Execute()
}
