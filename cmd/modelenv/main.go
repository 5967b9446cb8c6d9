package main

import "modelenv/internal/cli"

func main() {
	cli.Execute()
}
