// Command qbankprobe-web starts a small web UI for the export probe.
//
// Usage:
//
//	qbankprobe-web -addr :8080
package main

import (
	"flag"
	"log"

	"qbank/internal/webui"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	srv := webui.NewServer(webui.Config{Addr: *addr})
	log.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
