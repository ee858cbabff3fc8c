package main

import (
	"flag"
	"log"

	"github.com/quillhq/quill-backend/cmd"
)

func main() {
	shouldRunMigrations := flag.Bool("migrations", false, "run database migrations")
	shouldRunServer := flag.Bool("server", false, "run the HTTP API server")
	shouldRunWorker := flag.Bool("worker", false, "run the pipeline worker")
	flag.Parse()

	if *shouldRunMigrations {
		if err := cmd.RunMigrations(); err != nil {
			log.Fatal(err)
		}
	}
	if *shouldRunServer {
		if err := cmd.RunServer(); err != nil {
			log.Fatal(err)
		}
	}
	if *shouldRunWorker {
		if err := cmd.RunWorker(); err != nil {
			log.Fatal(err)
		}
	}
}
