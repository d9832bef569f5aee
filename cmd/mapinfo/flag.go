package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	hf         bool
	configPath string
	logLevel   string
	mapFile    string
)

func InitFlag() {
	flag.BoolVar(&hf, "h", false, "this help")
	flag.StringVar(&configPath, "c", "./conf/mapinfo.toml", "set config `file`")
	flag.StringVar(&logLevel, "l", "info", "set log level (default: info)")
	flag.StringVar(&mapFile, "m", "", "map `file` to load, overrides the config")
	flag.Usage = usage
	flag.Parse()

	if hf {
		flag.Usage()
		os.Exit(0)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `mapinfo: load a tile map and print what it holds
Usage: mapinfo [-h] [-c filename] [-l logLevel] [-m mapfile]
`)
	flag.PrintDefaults()
}
