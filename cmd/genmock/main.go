// Command genmock writes synthetic INPE-style daily hotspot CSVs for local
// runs of the prepare, train and serve flows. Output is reproducible for a
// given seed. Risk is a noisy function of dry days and rainfall so the
// trained models have signal to find.
//
// Usage:
//
//	go run ./cmd/genmock -out data -start 2023-01-01 -days 120
//	go run ./cmd/genmock -out daily_data -start 2025-05-19 -days 2 -no-risk
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/adapter/csvfile"
	"github.com/couchcryptid/fire-risk-service/internal/domain"
)

type city struct {
	state, municipality, biome string
	stateID, municipalityID    float64
	lat, lon                   float64
}

var cities = []city{
	{"MATO GROSSO", "ALTA FLORESTA", "Amazônia", 51, 5100250, -9.87, -56.08},
	{"MATO GROSSO", "SORRISO", "Cerrado", 51, 5107925, -12.55, -55.71},
	{"PARÁ", "SÃO FÉLIX DO XINGU", "Amazônia", 15, 1507300, -6.64, -51.99},
	{"PARÁ", "ALTAMIRA", "Amazônia", 15, 1500602, -3.20, -52.21},
	{"TOCANTINS", "PALMAS", "Cerrado", 17, 1721000, -10.18, -48.33},
	{"MARANHÃO", "BALSAS", "Cerrado", 21, 2101400, -7.53, -46.04},
	{"MATO GROSSO DO SUL", "CORUMBÁ", "Pantanal", 50, 5003207, -19.01, -57.65},
	{"BAHIA", "BARREIRAS", "Cerrado", 29, 2903201, -12.15, -45.00},
	{"PIAUÍ", "URUÇUÍ", "Caatinga", 22, 2211209, -7.23, -44.55},
	{"RONDÔNIA", "PORTO VELHO", "Amazônia", 11, 1100205, -8.76, -63.90},
}

var satellites = []string{"AQUA_M-T", "NOAA-20", "NPP-375", "GOES-16"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory")
	startFlag := flag.String("start", "", "first day (YYYY-MM-DD)")
	days := flag.Int("days", 30, "number of consecutive days")
	rows := flag.Int("rows", 200, "hotspots per day")
	seed := flag.Uint64("seed", 1, "random seed")
	skipChance := flag.Float64("skip", 0.15, "chance a city has no hotspot on a given day")
	noRisk := flag.Bool("no-risk", false, "leave risco_fogo empty, as in fresh daily files")
	flag.Parse()

	if *outDir == "" || *startFlag == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -start")
	}
	start, err := time.ParseInLocation(time.DateOnly, *startFlag, time.UTC)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	dry := make([]float64, len(cities))
	total := 0
	for d := range *days {
		day := start.AddDate(0, 0, d)
		recs := generateDay(rng, day, dry, *rows, *skipChance, !*noRisk)
		path := filepath.Join(*outDir, domain.DailyFileName(day))
		if err := writeFile(path, recs); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		total += len(recs)
	}
	log.Printf("wrote %d files, %d hotspots to %s", *days, total, *outDir)
	return nil
}

// generateDay advances each city's dry-day counter and emits hotspots for
// the cities active that day.
func generateDay(rng *rand.Rand, day time.Time, dry []float64, rows int, skip float64, withRisk bool) []domain.HotspotRecord {
	season := (1 - math.Cos(2*math.Pi*float64(day.YearDay())/365)) / 2 // peaks mid-year
	rain := make([]float64, len(cities))
	active := make([]bool, len(cities))
	for i := range cities {
		if rng.Float64() < 0.6-0.5*season {
			rain[i] = math.Round(rng.Float64()*300) / 10
			dry[i] = 0
		} else {
			dry[i]++
		}
		active[i] = rng.Float64() >= skip
	}

	var recs []domain.HotspotRecord
	for n := 0; n < rows; n++ {
		i := rng.IntN(len(cities))
		if !active[i] {
			continue
		}
		c := cities[i]
		at := day.Add(time.Duration(rng.IntN(24*60)) * time.Minute)
		rec := domain.HotspotRecord{
			ID:              fmt.Sprintf("%s-%05d", day.Format(domain.ArchiveDateLayout), n),
			Lat:             math.Round((c.lat+rng.NormFloat64()*0.05)*1e5) / 1e5,
			Lon:             math.Round((c.lon+rng.NormFloat64()*0.05)*1e5) / 1e5,
			ObservedAt:      at,
			Satellite:       satellites[rng.IntN(len(satellites))],
			Municipality:    c.municipality,
			State:           c.state,
			Country:         "Brasil",
			MunicipalityID:  domain.Float(c.municipalityID),
			StateID:         domain.Float(c.stateID),
			CountryID:       domain.Float(33),
			DaysWithoutRain: domain.Float(dry[i]),
			Precipitation:   domain.Float(rain[i]),
			Biome:           c.biome,
			FRP:             domain.Float(math.Round(rng.ExpFloat64()*250) / 10),
		}
		// Sensors occasionally report no weather.
		if rng.Float64() < 0.02 {
			rec.DaysWithoutRain = nil
			rec.Precipitation = nil
		}
		if withRisk {
			risk := 0.15 + 0.5*season + 0.02*math.Min(dry[i], 20) - 0.01*rain[i] + rng.NormFloat64()*0.05
			risk = math.Max(0, math.Min(1, risk))
			rec.FireRisk = domain.Float(math.Round(risk*100) / 100)
		}
		recs = append(recs, rec)
	}
	return recs
}

func writeFile(path string, recs []domain.HotspotRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := csvfile.Write(f, recs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
