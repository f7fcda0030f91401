// Command lifeplan manages goals, projects, tasks, time blocks and todos.
package main

import (
	"os"

	"lifeplan/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
