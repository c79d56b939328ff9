package main

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// counterFile is set from the config at startup
var counterFile = "./apilog"

// flush interval for the persisted counts
const counterFlushSeconds = 600

// Requests ...
type Requests struct {
	Csv int64 `json:"csv"`
	Dxf int64 `json:"dxf"`
	Dwg int64 `json:"dwg"`
}

type single struct {
	mu     sync.Mutex
	values map[string]int64
}

var counter = single{
	values: make(map[string]int64),
}

func (s *single) Get(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *single) Set(key string, newValue int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = newValue
	return s.values[key]
}

func (s *single) Incr(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key]++
	return s.values[key]
}

// readCount primes the counters from the persisted file and keeps
// flushing them back on a ticker.
func readCount() {
	read, err := os.ReadFile(counterFile)
	if err != nil {
		log.Println(err)
		writeCount()
	} else {
		count := Requests{}
		if jerr := json.Unmarshal(read, &count); jerr != nil {
			log.Println(jerr)
		}
		counter.Set("csv", count.Csv)
		counter.Set("dxf", count.Dxf)
		counter.Set("dwg", count.Dwg)
	}

	log.Println("starting csv count:", counter.Get("csv"))
	log.Println("starting dxf count:", counter.Get("dxf"))
	log.Println("starting dwg count:", counter.Get("dwg"))

	writeTicker := time.NewTicker(time.Second * counterFlushSeconds)
	for range writeTicker.C {
		writeCount()
	}
}

func writeCount() {
	count := Requests{
		Csv: counter.Get("csv"),
		Dxf: counter.Get("dxf"),
		Dwg: counter.Get("dwg"),
	}

	writeMe, err := json.Marshal(count)
	if err != nil {
		log.Println(err)
		return
	}

	if err := os.WriteFile(counterFile, writeMe, 0644); err != nil {
		log.Println(err)
	}
}
