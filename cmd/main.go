package main

import (
	"projectsummarizer.dev/cli/internal/interfaces/cli"
)

func main() {
	cli.Execute()
}
