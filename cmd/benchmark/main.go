package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"shibutz/pkg/model"
	"shibutz/pkg/sat"
)

const subjectsPerCatalogue = 4

func main() {
	// Define arguments
	outPtr := flag.String("out", "benchmark.csv", "Path of the CSV report")
	maxClassesPtr := flag.Int("max-classes", 8, "Largest class-group count of the sweep")
	trialsPtr := flag.Int("trials", 3, "Catalogues generated per size")
	timeLimitPtr := flag.Duration("time-limit", 10*time.Second, "Search budget per catalogue")
	seedPtr := flag.Uint64("seed", 1, "Seed of the catalogue generator")
	portfolioPtr := flag.Bool("portfolio", false, "Race the portfolio engine instead of a single DPLL instance")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var solver sat.Solver
	if *portfolioPtr {
		solver = sat.NewPortfolioSolver(0)
	} else {
		solver = sat.NewDPLLSolver()
	}
	scheduler := model.NewScheduler(solver, nil)
	rng := rand.New(rand.NewPCG(*seedPtr, 0))

	records := [][]string{
		{"classes", "trial", "status", "variables", "clauses", "branches", "conflicts", "wallTimeMs"},
	}

	for classes := 1; classes <= *maxClassesPtr; classes++ {
		for trial := 0; trial < *trialsPtr; trial++ {
			catalogue := buildCatalogue(classes, rng)

			result, err := scheduler.Solve(catalogue, *timeLimitPtr)
			if err != nil {
				logger.Fatal("solve failed", zap.Int("classes", classes), zap.Error(err))
			}

			logger.Info("catalogue solved",
				zap.Int("classes", classes),
				zap.Int("trial", trial),
				zap.String("status", string(result.Status)),
				zap.Duration("wallTime", result.Statistics.WallTime),
			)
			records = append(records, []string{
				strconv.Itoa(classes),
				strconv.Itoa(trial),
				string(result.Status),
				strconv.FormatUint(result.Statistics.Variables, 10),
				strconv.FormatUint(result.Statistics.Clauses, 10),
				strconv.FormatUint(result.Statistics.Branches, 10),
				strconv.FormatUint(result.Statistics.Conflicts, 10),
				strconv.FormatInt(result.Statistics.WallTime.Milliseconds(), 10),
			})
		}
	}

	file, err := os.Create(*outPtr)
	if err != nil {
		logger.Fatal("cannot create report file", zap.Error(err))
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		logger.Fatal("cannot write report", zap.Error(err))
	}
	logger.Info("report written", zap.String("file", *outPtr), zap.Int("rows", len(records)-1))
}

// buildCatalogue generates a random catalogue of the given size on the
// standard six-day grid. Every class group demands three weekly hours of
// each subject; teachers are sprinkled with random unavailable slots, so
// larger catalogues drift towards infeasibility.
func buildCatalogue(classes int, rng *rand.Rand) model.Catalogue {
	calendar := model.Calendar{Days: 6, Periods: 8, ShortDayPeriods: 6}

	catalogue := model.Catalogue{Calendar: calendar}

	for subject := 0; subject < subjectsPerCatalogue; subject++ {
		catalogue.Subjects = append(catalogue.Subjects, model.Subject{
			Id:   uint64(subject),
			Name: fmt.Sprintf("subject-%v", subject),
		})

		// One teacher per subject per three class groups
		for teacher := 0; teacher <= (classes-1)/3; teacher++ {
			catalogue.Teachers = append(catalogue.Teachers, model.Teacher{
				Id:           uint64(subject*100 + teacher),
				Name:         fmt.Sprintf("teacher-%v-%v", subject, teacher),
				Subjects:     []uint64{uint64(subject)},
				Availability: randomAvailability(calendar, rng),
			})
		}
	}

	for class := 0; class < classes; class++ {
		catalogue.ClassGroups = append(catalogue.ClassGroups, model.ClassGroup{
			Id:       uint64(class),
			Name:     fmt.Sprintf("class-%v", class),
			Students: 20 + uint64(rng.IntN(15)),
		})
		catalogue.Rooms = append(catalogue.Rooms, model.Room{
			Id:       uint64(class),
			Name:     fmt.Sprintf("room-%v", class),
			Capacity: 40,
		})

		for subject := 0; subject < subjectsPerCatalogue; subject++ {
			catalogue.Requirements = append(catalogue.Requirements, model.Requirement{
				ClassGroup:  uint64(class),
				Subject:     uint64(subject),
				WeeklyHours: 3,
			})
		}
	}

	return catalogue
}

// randomAvailability blocks roughly one slot in ten.
func randomAvailability(calendar model.Calendar, rng *rand.Rand) [][]bool {
	matrix := make([][]bool, calendar.Days)
	for day := range matrix {
		matrix[day] = make([]bool, calendar.Periods)
		for period := range matrix[day] {
			matrix[day][period] = rng.Float64() >= 0.1
		}
	}
	return matrix
}
