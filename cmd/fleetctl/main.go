package main

import "github.com/mcoot/fleetgame-go/internal/cli"

func main() {
	cli.Execute()
}
