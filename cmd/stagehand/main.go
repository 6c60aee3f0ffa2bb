package main

import (
	"log"
	"os"

	cli "gitlab.com/stagehand/stagehand/internal/cli/stagehand"
)

func main() {
	if err := cli.NewApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
