package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/amalg/go-pacman/internal/replay"
)

func main() {
	showMap := flag.Bool("map", false, "Print the recorded map")
	asJSON := flag.Bool("json", false, "Print the summary as JSON")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: replay [--map] [--json] <file.parquet>...")
		os.Exit(1)
	}

	for _, path := range flag.Args() {
		rec, err := replay.Read(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		sum := rec.Summarize()

		if *asJSON {
			out, err := json.Marshal(struct {
				File string `json:"file"`
				replay.Summary
			}{path, sum})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
			continue
		}

		fmt.Printf("%s\n", path)
		fmt.Printf("  session:  %s\n", sum.SessionID)
		fmt.Printf("  ticks:    %d\n", sum.Ticks)
		fmt.Printf("  score:    %d\n", sum.FinalScore)
		fmt.Printf("  pickups:  %d\n", sum.Pickups)
		fmt.Printf("  finished: %t\n", sum.Over)
		if *showMap {
			fmt.Println()
			fmt.Println(strings.Join(rec.Map, "\n"))
		}
	}
}
