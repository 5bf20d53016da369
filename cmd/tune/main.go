// Package main runs CMA-ES over the steering and safety parameters to find
// bots that rarely crash into walls or bodies while still growing.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/serpent/config"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 36000, "Simulation length per run in ticks")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Fail fast on a bad base config; each run reloads its own copy.
	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	params := NewParamVector()
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, *configPath, int32(*maxTicks), evalSeeds)

	evalLog, err := newEvalLog(filepath.Join(*outputDir, "tune_log.csv"), params, *maxEvals)
	if err != nil {
		log.Fatal(err)
	}
	defer evalLog.Close()

	popSize := *population
	if popSize == 0 {
		popSize = 4 + 3*params.Dim()/2
	}

	// The search runs in normalized space and starts from the base config,
	// so a previous best_config.yaml can seed a new search.
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			values := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(values)
			evalLog.Record(fitness, evaluator.LastSelfRate(), values)
			return fitness
		},
	}
	initX := params.Normalize(params.Clamp(params.ExtractFromConfig(baseCfg)))
	settings := &optimize.Settings{FuncEvaluations: *maxEvals}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}

	fmt.Printf("Tuning %d parameters: population=%d, max_evals=%d, seeds=%d, ticks=%d\n",
		params.Dim(), popSize, *maxEvals, *seeds, *maxTicks)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	best := evalLog.Best()
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nDone: %d evaluations in %s, best fitness %.4f\n",
		evalLog.Count(), formatDuration(evalLog.Elapsed()), evalLog.BestFitness())
	for i, spec := range params.Specs {
		fmt.Printf("  %-24s %-36s %.6f\n", spec.Name, spec.Path, best[i])
	}

	if err := writeResults(*outputDir, *configPath, params, best, evaluator); err != nil {
		log.Fatal(err)
	}
}

// writeResults saves best_config.yaml and, when any bot made it in,
// hall_of_fame.json.
func writeResults(dir, configPath string, params *ParamVector, best []float64, evaluator *FitnessEvaluator) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	if err := params.ApplyToConfig(cfg, best); err != nil {
		return fmt.Errorf("applying best parameters: %w", err)
	}
	cfgPath := filepath.Join(dir, "best_config.yaml")
	if err := cfg.WriteYAML(cfgPath); err != nil {
		return err
	}
	fmt.Printf("Best config saved to: %s\n", cfgPath)

	hof := evaluator.BestHallOfFame()
	if hof == nil || hof.Size() == 0 {
		return nil
	}
	data, err := json.MarshalIndent(hof, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling hall of fame: %w", err)
	}
	hofPath := filepath.Join(dir, "hall_of_fame.json")
	if err := os.WriteFile(hofPath, data, 0644); err != nil {
		return fmt.Errorf("writing hall of fame: %w", err)
	}
	fmt.Printf("Hall of fame saved to: %s\n", hofPath)
	return nil
}

// evalLog writes one CSV row per evaluation, prints progress and remembers
// the best parameters seen. The column set follows the parameter vector.
type evalLog struct {
	file     *os.File
	w        *csv.Writer
	maxEvals int
	start    time.Time

	count       int
	bestFitness float64
	best        []float64
}

func newEvalLog(path string, params *ParamVector, maxEvals int) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating eval log: %w", err)
	}
	l := &evalLog{
		file:        f,
		w:           csv.NewWriter(f),
		maxEvals:    maxEvals,
		start:       time.Now(),
		bestFitness: 1e9,
	}
	header := []string{"eval", "fitness", "self_deaths_per_bot_min"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing eval log header: %w", err)
	}
	return l, nil
}

// Record logs one evaluation of values.
func (l *evalLog) Record(fitness, selfRate float64, values []float64) {
	l.count++
	if fitness < l.bestFitness {
		l.bestFitness = fitness
		l.best = append(l.best[:0], values...)
	}

	row := make([]string, 0, 3+len(values))
	row = append(row,
		strconv.Itoa(l.count),
		strconv.FormatFloat(fitness, 'f', 6, 64),
		strconv.FormatFloat(selfRate, 'f', 6, 64),
	)
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := l.w.Write(row); err != nil {
		log.Printf("eval log: %v", err)
	}
	l.w.Flush()

	elapsed := l.Elapsed()
	eta := time.Duration(l.maxEvals-l.count) * (elapsed / time.Duration(l.count))
	fmt.Printf("Eval %d/%d: fitness=%.4f self=%.3f/bot-min (best=%.4f) | elapsed %s, ETA %s\n",
		l.count, l.maxEvals, fitness, selfRate, l.bestFitness,
		formatDuration(elapsed), formatDuration(eta))
}

// Best returns the best parameters recorded, or nil before the first row.
func (l *evalLog) Best() []float64 { return l.best }

func (l *evalLog) BestFitness() float64 { return l.bestFitness }

func (l *evalLog) Count() int { return l.count }

func (l *evalLog) Elapsed() time.Duration { return time.Since(l.start) }

// Close flushes and closes the log file.
func (l *evalLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}

// formatDuration formats a duration as 1h02m03s, or 2m03s under an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
