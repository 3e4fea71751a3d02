package kv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"github.com/ValentinKolb/qdb/cmd/util"
	"github.com/ValentinKolb/qdb/lib/store"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for qdb servers",
		Long:    "Runs a set of workloads against a temporary namespace and prints latency and throughput per workload.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfNamespace        = "__perf"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfOps              = 10000
	perfSkip             = make([]string, 0)
)

// perfWorkload is one operation executed repeatedly by the perf command
type perfWorkload struct {
	name string
	op   func(s store.IStore, key string, i int) error
}

// perfResult is the outcome of one workload
type perfResult struct {
	name     string
	timer    gometrics.Timer
	errors   int64
	duration time.Duration
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Workloads to skip (comma separated - e.g. write,read)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines sending requests"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the write-large workload should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the workloads"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("How many operations to send per workload"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfOps = max(viper.GetInt("ops"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for qdb servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Ops per workload: %d\n", perfNumThreads, perfOps)
	fmt.Println()

	// Prepare the namespace used by all workloads
	if err := rpcStore.CreateNamespace(perfNamespace); err != nil {
		return fmt.Errorf("failed to create namespace %s: %w", perfNamespace, err)
	}
	defer func() {
		if err := rpcStore.DeleteNamespace(perfNamespace); err != nil {
			log.Printf("error deleting namespace %s: %v\n", perfNamespace, err)
		}
	}()

	fmt.Println("starting tests...")

	var results []perfResult
	for _, w := range perfWorkloads(strings.Repeat("x", perfLargeValueSizeKB*1024)) {
		if slices.Contains(perfSkip, w.name) {
			fmt.Printf("%-20sskipped\n", w.name)
			continue
		}
		result := runWorkload(rpcStore, w, perfNumThreads, perfOps)
		printResult(result)
		results = append(results, result)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// perfWorkloads returns all workloads in the order they are run.
// The read workload runs after write, so its keys exist.
func perfWorkloads(largeValue string) []perfWorkload {
	return []perfWorkload{
		{"write", func(s store.IStore, key string, _ int) error {
			return s.Write(perfNamespace, key, "test", true)
		}},
		{"write-large", func(s store.IStore, key string, _ int) error {
			return s.Write(perfNamespace, key, largeValue, true)
		}},
		{"read", func(s store.IStore, key string, _ int) error {
			_, err := s.Read(perfNamespace, key)
			return err
		}},
		{"mixed", func(s store.IStore, key string, i int) error {
			switch i % 3 {
			case 0:
				return s.Write(perfNamespace, key, "test", true)
			case 1:
				_, err := s.Read(perfNamespace, key)
				return ignoreMissing(err)
			default:
				return ignoreMissing(s.Delete(perfNamespace, key))
			}
		}},
		{"delete", func(s store.IStore, key string, _ int) error {
			return ignoreMissing(s.Delete(perfNamespace, key))
		}},
	}
}

// ignoreMissing drops errors of operations on keys that another goroutine deleted
func ignoreMissing(err error) error {
	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		return err
	}
	if storeErr.Code == store.RetCKeyNotFound ||
		(storeErr.Code == store.RetCRemote && strings.Contains(storeErr.Msg, store.RetCKeyNotFound.String())) {
		return nil
	}
	return err
}

// runWorkload sends ops operations from the given number of goroutines and times every one of them
func runWorkload(s store.IStore, w perfWorkload, threads, ops int) perfResult {
	result := perfResult{name: w.name, timer: gometrics.NewTimer()}

	var next atomic.Int64
	var failed atomic.Int64
	var wg sync.WaitGroup

	start := time.Now()
	for t := 0; t < threads; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= ops {
					return
				}
				key := "key-" + strconv.Itoa(i%perfKeySpread)

				opStart := time.Now()
				err := w.op(s, key, i)
				result.timer.UpdateSince(opStart)

				if err != nil {
					if failed.Add(1) == 1 {
						log.Printf("(%s) - error performing operation: %v\n", w.name, err)
					}
				}
			}
		}()
	}
	wg.Wait()

	result.duration = time.Since(start)
	result.errors = failed.Load()
	return result
}

// opsPerSec returns the throughput of a workload
func (r perfResult) opsPerSec() float64 {
	if r.duration <= 0 {
		return 0
	}
	return float64(r.timer.Count()) / r.duration.Seconds()
}

// printResult prints the result of a workload in a formatted way
func printResult(r perfResult) {
	snap := r.timer.Snapshot()
	fmt.Printf("%-20smean %s\tp99 %s\t%.0f ops/sec\t%d errors\n",
		r.name,
		time.Duration(snap.Mean()),
		time.Duration(snap.Percentile(0.99)),
		r.opsPerSec(),
		r.errors,
	)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	config := util.GetClientConfig()

	// Write header
	header := []string{
		"Test", "Ops", "Errors", "MeanNs", "P50Ns", "P99Ns", "MaxNs", "OpsPerSec",
		"Endpoints", "TimeoutSec", "ConnectionsPerEndpoint", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for _, r := range results {
		snap := r.timer.Snapshot()
		ps := snap.Percentiles([]float64{0.5, 0.99})

		row := []string{
			r.name,
			strconv.FormatInt(snap.Count(), 10),
			strconv.FormatInt(r.errors, 10),
			fmt.Sprintf("%.0f", snap.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			strconv.FormatInt(snap.Max(), 10),
			fmt.Sprintf("%.0f", r.opsPerSec()),
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.ConnectionsPerEndpoint),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", r.name, err)
		}
	}

	return nil
}
