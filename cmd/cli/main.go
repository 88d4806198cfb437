package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shibutz/pkg/model"
	"shibutz/pkg/sat"
)

// Exit codes of the solve protocol: callers branch on these without parsing
// the output.
const (
	exitFeasible   = 10
	exitInfeasible = 20
	exitTimeout    = 30
	exitFastFail   = 40
)

var validSolvers = []string{"dpll", "portfolio"}

func main() {
	// Define arguments
	filePtr := flag.String("file", "", "Path to the catalogue JSON file")
	outPtr := flag.String("out", "", "Path to the file where the result will be written; if empty, it'll be written into the Standard Output")
	timeLimitPtr := flag.Duration("time-limit", 0, "Search budget (e.g. 30s, 2m); 0 takes the configured default")
	solverPtr := flag.String("solver", "", "Search engine to use. Allowed values are: \"dpll\" and \"portfolio\", where \"dpll\" is the default")
	workersPtr := flag.Int("workers", 0, "Worker count for the portfolio engine; 0 means one per CPU")
	dimacsPtr := flag.Bool("dimacs", false, "Compile the constraints, print them as DIMACS CNF and exit without solving")
	configPtr := flag.String("config", "", "Path to an optional YAML/JSON config file with defaults")
	flag.Parse()

	config := viper.New()
	config.SetDefault("solver", "dpll")
	config.SetDefault("workers", 0)
	config.SetDefault("timeLimit", "30s")
	config.SetDefault("logLevel", "info")

	if *configPtr != "" {
		config.SetConfigFile(*configPtr)
		if err := config.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "cannot read config file: %v\n", err)
			os.Exit(1)
		}
	}

	logger := newLogger(config.GetString("logLevel"))
	defer logger.Sync()

	// Explicit flags override the config file
	if *solverPtr != "" {
		config.Set("solver", strings.ToLower(*solverPtr))
	}
	if *workersPtr != 0 {
		config.Set("workers", *workersPtr)
	}
	if *timeLimitPtr != 0 {
		config.Set("timeLimit", timeLimitPtr.String())
	}

	// Validate arguments
	solverName := config.GetString("solver")
	if !slices.Contains(validSolvers, solverName) {
		logger.Fatal("invalid solver", zap.String("solver", solverName))
	}
	if *filePtr == "" {
		logger.Fatal("an input file must be specified")
	}
	timeLimit, err := time.ParseDuration(config.GetString("timeLimit"))
	if err != nil {
		logger.Fatal("cannot parse time limit", zap.Error(err))
	}

	// Extract the catalogue
	catalogue, err := model.CatalogueFromJson(*filePtr)
	if err != nil {
		logger.Fatal("cannot parse catalogue file", zap.Error(err))
	}

	if *dimacsPtr {
		dimacs, err := model.CompileDIMACS(catalogue)
		if err != nil {
			logger.Fatal("cannot compile constraints", zap.Error(err))
		}
		if err := writeOutput(*outPtr, []byte(dimacs)); err != nil {
			logger.Fatal("cannot write DIMACS output", zap.Error(err))
		}
		return
	}

	// Initialize engines
	var solver sat.Solver
	switch solverName {
	case "portfolio":
		solver = sat.NewPortfolioSolver(config.GetInt("workers"))
	default:
		solver = sat.NewDPLLSolver()
	}
	scheduler := model.NewScheduler(solver, logger)

	// Build the timetable
	result, err := scheduler.Solve(catalogue, timeLimit)
	if err != nil {
		logger.Fatal("an error occurred during timetable construction", zap.Error(err))
	}

	resultJson, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("an error occurred while building output json", zap.Error(err))
	}
	if err := writeOutput(*outPtr, resultJson); err != nil {
		logger.Fatal("an error occurred while writing the output", zap.Error(err))
	}

	logger.Info("solve finished",
		zap.String("status", string(result.Status)),
		zap.Int("assignments", len(result.Assignments)),
		zap.Int("conflicts", len(result.Conflicts)),
		zap.Duration("wallTime", result.Statistics.WallTime),
	)
	os.Exit(exitCodeFor(result.Status))
}

func exitCodeFor(status model.Status) int {
	switch status {
	case model.StatusFeasible, model.StatusOptimal:
		return exitFeasible
	case model.StatusInfeasible:
		return exitInfeasible
	case model.StatusTimeout:
		return exitTimeout
	case model.StatusInvalidData, model.StatusNoVariables:
		return exitFastFail
	default:
		return 1
	}
}

func writeOutput(outFile string, content []byte) error {
	if outFile == "" {
		fmt.Println(string(content))
		return nil
	}
	return os.WriteFile(outFile, content, 0666)
}

func newLogger(level string) *zap.Logger {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(parsed)
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := config.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
