package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/datamask"
	"github.com/paveg/datamask/internal/monitoring"
	"github.com/paveg/datamask/internal/version"
	"go.uber.org/zap"
)

func customUsage() {
	fmt.Fprintf(os.Stderr, "Datamask Evaluation Context CLI (version %s)\n\n", version.Version)
	fmt.Fprintf(os.Stderr, "Usage: datamask-cli [options]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  --demo\n\t\tRun basic demo\n")
	fmt.Fprintf(os.Stderr, "  --benchmark\n\t\tRun benchmark scenarios\n")
	fmt.Fprintf(os.Stderr, "  --rows N\n\t\tNumber of rows to use (default: 1000 for demo, 1000000 for benchmark)\n")
	fmt.Fprintf(os.Stderr, "  --csv FILE\n\t\tEvaluate aggregates over a CSV file\n")
	fmt.Fprintf(os.Stderr, "  --group-by COLS\n\t\tComma-separated grouping columns for --csv\n")
	fmt.Fprintf(os.Stderr, "  --sum COL\n\t\tColumn to sum per partition for --csv (default: count rows)\n")
	fmt.Fprintf(os.Stderr, "  -v, --verbose\n\t\tEnable verbose diagnostic logging\n")
	fmt.Fprintf(os.Stderr, "  --version\n\t\tPrint version information and exit\n")
	fmt.Fprintf(os.Stderr, "  -h, --help\n\t\tShow this help message and exit\n")
}

func main() {
	// Define flags
	versionFlag := flag.Bool("version", false, "Print version and exit")
	verboseFlag := flag.Bool("v", false, "Enable verbose diagnostic logging")
	flag.BoolVar(verboseFlag, "verbose", false, "Enable verbose diagnostic logging") // alias
	demoFlag := flag.Bool("demo", false, "Run basic demo")
	benchmarkFlag := flag.Bool("benchmark", false, "Run benchmark scenarios")
	rowsFlag := flag.Int("rows", 0, "Number of rows to use (default: 1000 for demo, 1000000 for benchmark)")
	csvFlag := flag.String("csv", "", "Evaluate aggregates over a CSV file")
	groupByFlag := flag.String("group-by", "", "Comma-separated grouping columns for --csv")
	sumFlag := flag.String("sum", "", "Column to sum per partition for --csv")

	// Customize usage message for -h, --help
	//nolint:reassign // Standard Go pattern for customizing flag usage message
	flag.Usage = customUsage

	flag.Parse()

	// Handle version flag
	if *versionFlag {
		fmt.Print(version.Info().String())
		return
	}

	// Verbose mode routes mask diagnostics to a development logger
	var logger *zap.Logger
	if *verboseFlag {
		logger = zap.Must(zap.NewDevelopment())
		defer func() { _ = logger.Sync() }()
	}

	// Handle other flags
	switch {
	case *csvFlag != "":
		runCSV(*csvFlag, *groupByFlag, *sumFlag, logger)
	case *demoFlag:
		runDemo(*rowsFlag, logger)
	case *benchmarkFlag:
		runBenchmark(*rowsFlag, logger)
	default:
		// If no flags are provided, print usage and exit.
		flag.Usage()
		os.Exit(1)
	}
}

//nolint:funlen // Demo function walks through the whole evaluation surface
func runDemo(rows int, logger *zap.Logger) {
	fmt.Println("🎭 Datamask Evaluation Context Demo")
	fmt.Println("===================================")

	mem := memory.NewGoAllocator()

	// Create larger sample dataset
	fmt.Println("Creating sample dataset...")

	// Set default if not specified
	if rows == 0 {
		rows = 1000
	}
	sampleSize := rows

	const (
		baseAge         = 25
		ageRange        = 40
		baseSalary      = 40000
		salaryIncrement = 1000
		salaryRange     = 60
		bonusPercentage = 0.1 // bonus as 10% of salary
	)
	names := make([]string, sampleSize)
	ages := make([]int64, sampleSize)
	salaries := make([]float64, sampleSize)
	departments := make([]string, sampleSize)

	depts := []string{"Engineering", "Sales", "Marketing", "HR", "Finance"}

	for i := range sampleSize {
		names[i] = fmt.Sprintf("Employee_%d", i+1)
		ages[i] = int64(baseAge + (i % ageRange))                           // Ages 25-64
		salaries[i] = float64(baseSalary + (i%salaryRange)*salaryIncrement) // Salaries 40k-99k
		departments[i] = depts[i%len(depts)]
	}

	// Create Series
	nameSeries := datamask.NewSeries("name", names, mem)
	ageSeries := datamask.NewSeries("age", ages, mem)
	salarySeries := datamask.NewSeries("salary", salaries, mem)
	deptSeries := datamask.NewSeries("department", departments, mem)

	defer nameSeries.Release()
	defer ageSeries.Release()
	defer salarySeries.Release()
	defer deptSeries.Release()

	// Create DataFrame
	df := datamask.NewDataFrame(nameSeries, ageSeries, salarySeries, deptSeries)
	defer df.Release()

	fmt.Printf("Created DataFrame with %d rows and %d columns\n", df.Len(), df.Width())
	fmt.Println("Columns:", df.Columns())
	fmt.Println()

	// Build a mask partitioned by department
	fmt.Println("Building a mask partitioned by department...")
	mk, err := datamask.NewMask(df, datamask.MaskOptions{
		GroupBy: []string{"department"},
		Logger:  logger,
		Metrics: true,
	})
	if err != nil {
		log.Printf("Error building mask: %v", err)
		return
	}
	defer mk.Release()

	fmt.Printf("Mask has %d partitions:\n", mk.PartitionCount())
	for i := range mk.PartitionCount() {
		info, perr := mk.Partition(i)
		if perr != nil {
			log.Printf("Error reading partition %d: %v", i, perr)
			return
		}
		fmt.Printf("  partition %d (%s): %d rows\n", info.Ordinal, depts[i], info.Rows)
	}
	fmt.Println()

	// Demonstrate per-partition evaluation
	fmt.Println("Evaluating expressions per partition:")
	fmt.Println("1. bonus = salary * 0.1 on the first partition")
	fmt.Println("2. mean(salary) across every partition")
	fmt.Println("3. " + datamask.GroupSizeName + " metadata across every partition")
	fmt.Println()

	bonus := datamask.Col("salary").Mul(datamask.Lit(bonusPercentage))
	if verr := mk.Validate(bonus); verr != nil {
		log.Printf("Error validating bonus expression: %v", verr)
		return
	}
	arr, err := mk.Eval(bonus, 0)
	if err != nil {
		log.Printf("Error evaluating bonus: %v", err)
		return
	}
	fmt.Printf("bonus on partition 0: %d values, first value %s\n", arr.Len(), formatScalar(arr))
	arr.Release()

	means, err := mk.EvalAll(datamask.Mean(datamask.Col("salary")))
	if err != nil {
		log.Printf("Error evaluating mean(salary): %v", err)
		return
	}
	for i, m := range means {
		fmt.Printf("  mean(salary) partition %d: %s\n", i, formatScalar(m))
		m.Release()
	}

	sizes, err := mk.EvalAll(datamask.Col(datamask.GroupSizeName))
	if err != nil {
		log.Printf("Error evaluating %s: %v", datamask.GroupSizeName, err)
		return
	}
	for i, s := range sizes {
		fmt.Printf("  %s partition %d: %s\n", datamask.GroupSizeName, i, formatScalar(s))
		s.Release()
	}

	// Print provider and metrics counters
	stats := mk.SubsetStats()
	summary := mk.Metrics()
	fmt.Println()
	fmt.Printf("Subset provider: %d materializations, %d cache hits\n",
		stats.Materializations, stats.CacheHits)
	fmt.Printf("Recorded %d operations over %d partitions (%s total)\n",
		summary.TotalOperations, summary.TotalPartitions, summary.TotalDuration)
	fmt.Println("Demo completed successfully! 🎉")
}

//nolint:funlen // Benchmark function requires extensive setup and measurement code
func runBenchmark(rows int, logger *zap.Logger) {
	fmt.Println("🚀 Datamask Evaluation Context Benchmark")
	fmt.Println("========================================")

	// Set default if not specified
	if rows == 0 {
		rows = 1_000_000 // 1 million rows for benchmarking
	}
	numRows := rows

	const (
		baseSalary      = 40000
		salaryIncrement = 1000
		salaryRange     = 60
		groupCount      = 50
		iterations      = 5
	)
	mem := memory.NewGoAllocator()

	// --- Benchmark: Series Creation ---
	fmt.Printf("\nBenchmarking Series creation for %d rows...\n", numRows)
	start := time.Now()
	keys := make([]string, numRows)
	values := make([]int64, numRows)
	salaries := make([]float64, numRows)

	for i := range numRows {
		keys[i] = fmt.Sprintf("group-%02d", i%groupCount)
		values[i] = int64(i)
		salaries[i] = float64(baseSalary + (i%salaryRange)*salaryIncrement)
	}

	keySeries := datamask.NewSeries("key", keys, mem)
	valueSeries := datamask.NewSeries("value", values, mem)
	salarySeries := datamask.NewSeries("salary", salaries, mem)
	seriesCreationTime := time.Since(start)
	fmt.Printf("Series Creation Time: %s\n", seriesCreationTime)

	defer keySeries.Release()
	defer valueSeries.Release()
	defer salarySeries.Release()

	// --- Benchmark: Mask Creation ---
	fmt.Printf("\nBenchmarking mask creation over %d groups...\n", groupCount)
	start = time.Now()
	df := datamask.NewDataFrame(keySeries, valueSeries, salarySeries)
	mk, err := datamask.NewMask(df, datamask.MaskOptions{GroupBy: []string{"key"}, Logger: logger})
	if err != nil {
		// Clean up all resources before exit
		df.Release()
		keySeries.Release()
		valueSeries.Release()
		salarySeries.Release()
		log.Printf("Error building mask: %v", err)
		os.Exit(1)
	}
	maskCreationTime := time.Since(start)
	fmt.Printf("Mask Creation Time: %s\n", maskCreationTime)

	defer df.Release()
	defer mk.Release()

	flat, err := datamask.NewMask(df, datamask.MaskOptions{Logger: logger})
	if err != nil {
		mk.Release()
		df.Release()
		keySeries.Release()
		valueSeries.Release()
		salarySeries.Release()
		log.Printf("Error building flat mask: %v", err)
		os.Exit(1)
	}
	defer flat.Release()

	// --- Benchmark: sequential vs parallel evaluation ---
	fmt.Printf("\nBenchmarking evaluation scenarios over %d iterations each...\n", iterations)
	sum := datamask.Sum(datamask.Col("value").Add(datamask.Col("salary")))

	seq := mk.WithConfig(datamask.OperationConfig{DisableParallel: true})
	par := mk.WithConfig(datamask.OperationConfig{ForceParallel: true})

	suite := monitoring.NewSuite()
	suite.Add(monitoring.Scenario{
		Name:        "eval_all_sequential",
		Description: "EvalAll with parallelism disabled",
		Rows:        numRows,
		Partitions:  groupCount,
		Iterations:  iterations,
		Op:          evalAllOp(seq, sum),
	})
	suite.Add(monitoring.Scenario{
		Name:        "eval_all_parallel",
		Description: "EvalAll with parallelism forced",
		Rows:        numRows,
		Partitions:  groupCount,
		Iterations:  iterations,
		Parallel:    true,
		Op:          evalAllOp(par, sum),
	})
	suite.Add(monitoring.Scenario{
		Name:        "eval_single_partition",
		Description: "Eval of a single partition",
		Rows:        numRows / groupCount,
		Partitions:  1,
		Iterations:  iterations,
		Op: func() error {
			arr, eerr := mk.Eval(sum, 0)
			if eerr != nil {
				return eerr
			}
			arr.Release()
			return nil
		},
	})
	suite.Add(monitoring.Scenario{
		Name:        "eval_flat",
		Description: "Whole-frame aggregate on an ungrouped mask",
		Rows:        numRows,
		Partitions:  1,
		Iterations:  iterations,
		Op: func() error {
			arr, eerr := flat.Eval(sum, 0)
			if eerr != nil {
				return eerr
			}
			arr.Release()
			return nil
		},
	})

	suite.Run()
	fmt.Print(suite.Report())

	groupedStats := mk.SubsetStats()
	flatStats := flat.SubsetStats()
	fmt.Printf("\nGrouped provider: %d materializations, %d cache hits\n",
		groupedStats.Materializations, groupedStats.CacheHits)
	fmt.Printf("Flat provider: %d materializations, %d cache hits\n",
		flatStats.Materializations, flatStats.CacheHits)

	fmt.Println("\nBenchmark suite completed successfully! 🎉")
}

// evalAllOp adapts an EvalAll call into a benchmark scenario op.
func evalAllOp(mk *datamask.Mask, x datamask.Expression) func() error {
	return func() error {
		out, err := mk.EvalAll(x)
		if err != nil {
			return err
		}
		for _, arr := range out {
			arr.Release()
		}
		return nil
	}
}

func runCSV(path, groupBy, sumColumn string, logger *zap.Logger) {
	mem := memory.NewGoAllocator()

	df, err := datamask.ReadCSVFile(path, datamask.DefaultCSVOptions(), mem)
	if err != nil {
		log.Printf("Error reading %s: %v", path, err)
		os.Exit(1)
	}
	defer df.Release()

	fmt.Printf("Read %s: %d rows, %d columns\n", path, df.Len(), df.Width())
	if df.Width() == 0 {
		log.Printf("No columns in %s", path)
		os.Exit(1)
	}

	opts := datamask.MaskOptions{Logger: logger}
	if groupBy != "" {
		opts.GroupBy = strings.Split(groupBy, ",")
	}
	mk, err := datamask.NewMask(df, opts)
	if err != nil {
		log.Printf("Error building mask: %v", err)
		os.Exit(1)
	}
	defer mk.Release()

	agg := datamask.Count(datamask.Col(df.Columns()[0]))
	label := "count"
	if sumColumn != "" {
		agg = datamask.Sum(datamask.Col(sumColumn))
		label = "sum(" + sumColumn + ")"
	}

	out, err := mk.EvalAll(agg)
	if err != nil {
		log.Printf("Error evaluating %s: %v", label, err)
		os.Exit(1)
	}
	for i, arr := range out {
		info, perr := mk.Partition(i)
		if perr != nil {
			log.Printf("Error reading partition %d: %v", i, perr)
			os.Exit(1)
		}
		fmt.Printf("  partition %d: rows=%d %s=%s\n", info.Ordinal, info.Rows, label, formatScalar(arr))
		arr.Release()
	}
}

// formatScalar renders the first value of an evaluation result.
func formatScalar(arr arrow.Array) string {
	if arr.Len() == 0 {
		return "<empty>"
	}
	if arr.IsNull(0) {
		return "null"
	}
	switch typed := arr.(type) {
	case *array.Int64:
		return fmt.Sprintf("%d", typed.Value(0))
	case *array.Float64:
		return fmt.Sprintf("%.2f", typed.Value(0))
	case *array.String:
		return typed.Value(0)
	case *array.Boolean:
		return fmt.Sprintf("%t", typed.Value(0))
	default:
		return arr.String()
	}
}
