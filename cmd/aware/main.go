package main

import "github.com/spice-itself/aware/internal/cli"

func main() {
	cli.Execute()
}
