package main

import "github.com/openbnet/presence/internal/cli"

func main() {
	cli.Execute()
}
