// Command pillarscatter scatters a sparse pillar feature dump into a
// dense spatial grid and writes the result plus optional artifacts: a
// heatmap PNG, a comparison against a reference dump, and a JSON run
// report.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/sugawarayuuta/sonnet"
	"gopkg.in/yaml.v3"

	pillarscatter "github.com/XI-Dimension/Ascend-PillarScatter"
	_ "github.com/XI-Dimension/Ascend-PillarScatter/gpu"
	"github.com/XI-Dimension/Ascend-PillarScatter/half"
	"github.com/XI-Dimension/Ascend-PillarScatter/heatmap"
	"github.com/XI-Dimension/Ascend-PillarScatter/internal/binio"
	"github.com/XI-Dimension/Ascend-PillarScatter/internal/refcheck"
)

// gridConfig is the YAML geometry file.
type gridConfig struct {
	Height   int `yaml:"height"`
	Width    int `yaml:"width"`
	Channels int `yaml:"channels"`
}

// runReport is the JSON run summary written by -report.
type runReport struct {
	Geometry   string  `json:"geometry"`
	Count      int     `json:"count"`
	Scattered  int     `json:"scattered"`
	Rejected   int     `json:"rejected"`
	Backend    string  `json:"backend"`
	Workers    int     `json:"workers"`
	Policy     string  `json:"policy"`
	ElapsedUS  float64 `json:"elapsed_us"`
	ItemsPerS  float64 `json:"items_per_s"`
	NonZero    int     `json:"non_zero"`
	CompareOK  *bool   `json:"compare_ok,omitempty"`
	MaxAbsDiff float64 `json:"max_abs_diff,omitempty"`
}

func main() {
	var (
		featPath   = flag.String("features", "", "pillar feature file (packed float16)")
		coordPath  = flag.String("coords", "", "coordinate file (packed uint32, 4 per item)")
		outPath    = flag.String("o", "", "output grid file (NHWC float16)")
		configPath = flag.String("config", "", "YAML geometry file (height/width/channels)")
		height     = flag.Int("height", 720, "grid height")
		width      = flag.Int("width", 720, "grid width")
		channels   = flag.Int("channels", 64, "channels per cell")
		workers    = flag.Int("workers", pillarscatter.DefaultWorkers, "worker count (0 = GOMAXPROCS)")
		trusting   = flag.Bool("trusting", false, "skip coordinate validation")
		cpuOnly    = flag.Bool("cpu", false, "ignore any registered accelerator")
		pngPath    = flag.String("heatmap", "", "write a heatmap PNG")
		reduce     = flag.String("reduce", "mean", "heatmap reduction: mean|max|sum|norm|occupancy")
		refPath    = flag.String("compare", "", "reference grid file (NCHW float16)")
		tolerance  = flag.Float64("tolerance", 0, "absolute tolerance for -compare")
		reportPath = flag.String("report", "", "write a JSON run report")
		verbose    = flag.Bool("v", false, "debug logging to stderr")
	)
	flag.Parse()

	if *verbose {
		pillarscatter.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	geom := pillarscatter.Geometry{Height: *height, Width: *width, Channels: *channels}
	if *configPath != "" {
		var err error
		geom, err = loadConfig(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if !geom.Valid() {
		log.Fatalf("invalid geometry %v", geom)
	}
	if *featPath == "" || *coordPath == "" {
		flag.Usage()
		log.Fatal("both -features and -coords are required")
	}

	features, err := binio.ReadFeatures(*featPath)
	if err != nil {
		log.Fatalf("features: %v", err)
	}
	coords, records, err := binio.ReadCoords(*coordPath)
	if err != nil {
		log.Fatalf("coords: %v", err)
	}
	count, mismatch := binio.DeriveCount(len(features), records*pillarscatter.CoordFields, geom.Channels)
	if mismatch {
		log.Printf("warning: features describe %d items, coords describe %d; using %d",
			len(features)/geom.Channels, records, count)
	}

	opts := []pillarscatter.Option{
		pillarscatter.WithWorkers(*workers),
	}
	if *trusting {
		opts = append(opts, pillarscatter.WithValidation(pillarscatter.Trusting))
	}
	if *cpuOnly {
		opts = append(opts, pillarscatter.WithoutAccelerator())
	}
	s := pillarscatter.New(geom, opts...)

	grid := pillarscatter.NewSpatialGrid(geom)
	res, err := s.Run(features, coords, count, grid)
	if err != nil {
		log.Fatalf("scatter: %v", err)
	}

	nonZero, first := grid.NonZero()
	us := float64(res.Elapsed.Microseconds())
	rate := 0.0
	if res.Elapsed > 0 {
		rate = float64(res.Scattered) / res.Elapsed.Seconds()
	}
	fmt.Printf("scattered %d of %d items (%d rejected) on %s in %v (%.0f items/s)\n",
		res.Scattered, count, res.Rejected, res.Backend, res.Elapsed, rate)
	fmt.Printf("grid %v: %d non-zero elements", geom, nonZero)
	if nonZero > 0 {
		y, x, c := geom.Unflatten(first)
		fmt.Printf(", first at [y=%d x=%d c=%d]", y, x, c)
	}
	fmt.Println()

	if *outPath != "" {
		if err := binio.WriteGrid(*outPath, grid); err != nil {
			log.Fatalf("output: %v", err)
		}
		fmt.Printf("wrote %s\n", *outPath)
	}

	if *pngPath != "" {
		red, err := heatmap.ParseReduction(*reduce)
		if err != nil {
			log.Fatalf("heatmap: %v", err)
		}
		hmOpts := heatmap.Options{Reduction: red, Markers: coords}
		if err := heatmap.SavePNG(*pngPath, grid, hmOpts); err != nil {
			log.Fatalf("heatmap: %v", err)
		}
		fmt.Printf("wrote %s (%s)\n", *pngPath, red)
	}

	report := runReport{
		Geometry:  geom.String(),
		Count:     count,
		Scattered: res.Scattered,
		Rejected:  res.Rejected,
		Backend:   res.Backend,
		Workers:   s.Workers(),
		Policy:    s.Policy().String(),
		ElapsedUS: us,
		ItemsPerS: rate,
		NonZero:   nonZero,
	}

	exitCode := 0
	if *refPath != "" {
		cmp, err := compareReference(*refPath, geom, grid.Data(), *tolerance)
		if err != nil {
			log.Fatalf("compare: %v", err)
		}
		fmt.Println(cmp)
		ok := cmp.OK()
		report.CompareOK = &ok
		report.MaxAbsDiff = cmp.MaxAbsDiff
		if !ok {
			exitCode = 1
		}
	}

	if *reportPath != "" {
		if err := writeReport(*reportPath, report); err != nil {
			log.Fatalf("report: %v", err)
		}
		fmt.Printf("wrote %s\n", *reportPath)
	}

	os.Exit(exitCode)
}

func loadConfig(path string) (pillarscatter.Geometry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return pillarscatter.Geometry{}, err
	}
	var cfg gridConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return pillarscatter.Geometry{}, err
	}
	return pillarscatter.Geometry{
		Height:   cfg.Height,
		Width:    cfg.Width,
		Channels: cfg.Channels,
	}, nil
}

func compareReference(path string, geom pillarscatter.Geometry, got []half.F16, tolerance float64) (refcheck.Report, error) {
	want, err := binio.ReadReferenceNCHW(path, geom)
	if err != nil {
		return refcheck.Report{}, err
	}
	return refcheck.Compare(got, want, geom, tolerance)
}

func writeReport(path string, report runReport) error {
	raw, err := sonnet.Marshal(report)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}
