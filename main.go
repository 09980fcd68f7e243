package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "mailsort",
		Usage: "classify IMAP mail with ordered rules and rule chains",
		Commands: []*cli.Command{
			serveCommand(),
			runCommand(),
			foldersCommand(),
			rulesCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("mailsort: %v", err)
	}
}
