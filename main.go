package main

import "economy-fund/internal/cli"

func main() {
	cli.Execute()
}
