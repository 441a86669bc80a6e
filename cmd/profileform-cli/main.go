package main

import "github.com/goliatone/go-profileform/internal/cli"

func main() {
	cli.Execute()
}
