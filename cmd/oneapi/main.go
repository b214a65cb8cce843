package main

import "github.com/Sternrassler/oneapi-client/internal/cli"

func main() {
	cli.Execute()
}
