// Command sprintd runs the sprint intelligence tracker-sync and analytics
// service.
package main

import (
	"log"

	"github.com/scullers68/sprintintel/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
