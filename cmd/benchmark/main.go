package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/limaJavier/exam-timetabling/pkg/comparison"
	"github.com/limaJavier/exam-timetabling/pkg/constraint"
	"github.com/limaJavier/exam-timetabling/pkg/metrics"
	"github.com/limaJavier/exam-timetabling/pkg/model"
	"github.com/limaJavier/exam-timetabling/pkg/solver"
)

const benchmarkSeed = 372408

type InstanceMetadata struct {
	Name         string
	Exams        int
	Timeslots    int
	Rooms        int
	Invigilators int
	Students     int
}

type BenchmarkResult struct {
	Instance InstanceMetadata
	Strategy string
	Record   metrics.Record
	Failed   bool
}

func main() {
	directory := flag.String("dir", "test/instances/", "directory with instance JSON files")
	budget := flag.Duration("budget", 30*time.Second, "time budget per strategy run")
	output := flag.String("out", "benchmark_results.csv", "CSV file to write")
	flag.Parse()

	instances := getInstances(*directory)
	results := make([]BenchmarkResult, 0, len(instances)*4)

	for _, instance := range instances {
		fmt.Printf("Benchmarking instance \"%v\"\n", instance.Name)

		m, err := model.InstanceFromJson(instance.Name)
		if err != nil {
			log.Fatalf("cannot parse instance file: %v", err)
		}

		report, err := comparison.RunComparison(
			context.Background(),
			m,
			constraint.FullSelection(),
			[]solver.Strategy{
				solver.NewExact(),
				solver.NewLocalSearch(benchmarkSeed),
				solver.NewTabuSearch(benchmarkSeed),
				solver.NewGenetic(benchmarkSeed),
			},
			*budget,
		)
		if err != nil {
			log.Fatalf("comparison failed on \"%v\": %v", instance.Name, err)
		}

		results = append(results, lo.Map(report.Entries, func(entry comparison.Entry, _ int) BenchmarkResult {
			return BenchmarkResult{
				Instance: instance,
				Strategy: entry.Strategy,
				Record:   entry.Record,
				Failed:   entry.Err != nil,
			}
		})...)
	}

	toCsv(*output, results)
}

func getInstances(directory string) []InstanceMetadata {
	files, err := os.ReadDir(directory)
	if err != nil {
		log.Fatalf("cannot read directory: %v", err)
	}

	instances := make([]InstanceMetadata, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		filename := filepath.Join(directory, file.Name())
		m, err := model.InstanceFromJson(filename)
		if err != nil {
			log.Fatalf("cannot parse instance file: %v", err)
		}
		raw := m.Raw()

		instances = append(instances, InstanceMetadata{
			Name:         filename,
			Exams:        len(raw.Exams),
			Timeslots:    len(raw.Timeslots),
			Rooms:        len(raw.Rooms),
			Invigilators: len(raw.Invigilators),
			Students:     int(raw.Students),
		})
	}

	return instances
}

func toCsv(output string, results []BenchmarkResult) {
	file, err := os.Create(output)
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Instance", "Exams", "Timeslots", "Rooms", "Invigilators", "Students", "Strategy", "Status", "Duration(ms)", "Hard Violations", "Soft Penalty"}
	if err := writer.Write(header); err != nil {
		log.Panicf("cannot write CSV header: %v", err)
	}

	for _, result := range results {
		status := string(result.Record.Status)
		if result.Failed {
			status = string(solver.StatusError)
		}
		record := []string{
			result.Instance.Name,
			fmt.Sprintf("%d", result.Instance.Exams),
			fmt.Sprintf("%d", result.Instance.Timeslots),
			fmt.Sprintf("%d", result.Instance.Rooms),
			fmt.Sprintf("%d", result.Instance.Invigilators),
			fmt.Sprintf("%d", result.Instance.Students),
			result.Strategy,
			status,
			fmt.Sprintf("%d", result.Record.Duration.Milliseconds()),
			fmt.Sprintf("%d", result.Record.TotalHardViolations),
			fmt.Sprintf("%d", result.Record.TotalSoftPenalty),
		}
		if err := writer.Write(record); err != nil {
			log.Panicf("cannot write CSV record: %v", err)
		}
	}
}
