package main

import "github.com/kailas-cloud/corpusdex/internal/cli"

func main() {
	cli.Execute()
}
