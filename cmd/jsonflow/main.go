package main

import "github.com/the-dev-tools/jsonflow/internal/cli"

func main() {
	cli.Execute()
}
