// Command replay runs one symbol's CSV history through the signal engine and
// prints the events it would have produced.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"VCPSentinel/internal/ingest"
	"VCPSentinel/internal/model"
	vcpsignal "VCPSentinel/internal/signal"
	"VCPSentinel/internal/strategy"
	"VCPSentinel/internal/synth"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	csvPath := flag.String("csv", "", "CSV file with date,open,high,low,close,volume columns (empty replays the synthetic sample)")
	symbol := flag.String("symbol", "", "symbol name, defaults to the CSV file name")
	preset := flag.String("preset", strategy.PresetBasic, "vcp preset: basic, plus or loose")
	all := flag.Bool("all", false, "print every evaluated bar, not only events")
	asJSON := flag.Bool("json", false, "print events as JSON lines")
	flag.Parse()

	bars, name, err := load(*csvPath)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if *symbol == "" {
		*symbol = name
	}

	params, err := strategy.PresetParams(*preset)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	settings, err := vcpsignal.PresetSettings(*preset)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	eng, err := vcpsignal.NewEngine(*symbol, params, settings)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	outs, events, err := eng.Run(bars)
	if err != nil {
		log.Fatalf("[FATAL] replay: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, o := range outs {
		if *all && o.Ready {
			printOutput(o)
		}
		for _, ev := range o.Events {
			if *asJSON {
				if err := enc.Encode(ev); err != nil {
					log.Fatalf("[FATAL] encode: %v", err)
				}
				continue
			}
			fmt.Printf("%s %-4s %-8s %10.2f  %s\n", ev.Date.Format("2006-01-02"), strings.ToUpper(string(ev.Kind)), ev.Symbol, ev.Price, ev.Description)
		}
	}
	log.Printf("[INFO] %s: %d bars, %d events, final state %s", *symbol, len(bars), len(events), eng.State().State)
}

func load(path string) ([]model.Bar, string, error) {
	if path == "" {
		return synth.VCPSample(), "SAMPLE", nil
	}
	bars, err := ingest.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	name := strings.ToUpper(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	return bars, name, nil
}

func printOutput(o model.Output) {
	rs := "-"
	if o.RSRating != nil {
		rs = fmt.Sprintf("%.1f", *o.RSRating)
	}
	fmt.Printf("%s stage2=%-5v progress=%.2f contractions=%d max=%.2f min=%.2f weeks=%.1f rs=%s state=%s\n",
		o.Date.Format("2006-01-02"), o.Stage2Pass, o.Progress, o.ContractionCount,
		o.MaxContractionPct, o.MinContractionPct, o.WeeksOfContraction, rs, o.State)
}
