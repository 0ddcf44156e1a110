package main

import "github.com/vaama/inventorypacer/internal/cli"

func main() {
	cli.Execute()
}
