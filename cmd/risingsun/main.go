package main

import "github.com/rustyeddy/risingsun/internal/cli"

func main() {
	cli.Execute()
}
