package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/godeepar/cad2shp/config"
)

func main() {
	cfgPath := flag.String("config", "", "path to yaml config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	srv := newServer(cfg)

	counterFile = cfg.CounterFile
	go readCount()

	proxy := &http.Server{
		Addr:    cfg.Listen,
		Handler: srv.routes(),
	}

	log.Println("Listening on " + cfg.Listen)
	log.Fatal(proxy.ListenAndServe())
}
