package datamask

import (
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"

	dmio "github.com/paveg/datamask/internal/io"
)

// CSVOptions configures CSV reading and writing.
type CSVOptions = dmio.CSVOptions

// DefaultCSVOptions returns the default CSV configuration: comma
// delimited, header row present, column types inferred from the data.
func DefaultCSVOptions() CSVOptions {
	return dmio.DefaultCSVOptions()
}

// ReadCSV reads CSV data into a DataFrame. With type inference enabled,
// columns whose values all parse as a narrower type become typed Arrow
// columns; empty cells become nulls. The caller owns the frame.
func ReadCSV(r io.Reader, opts CSVOptions, mem memory.Allocator) (*DataFrame, error) {
	inner, err := dmio.NewCSVReader(r, opts, mem).Read()
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: inner}, nil
}

// ReadCSVFile reads the named CSV file into a DataFrame.
func ReadCSVFile(path string, opts CSVOptions, mem memory.Allocator) (*DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, opts, mem)
}

// WriteCSV writes the frame as CSV.
func WriteCSV(w io.Writer, df *DataFrame, opts CSVOptions) error {
	return dmio.NewCSVWriter(w, opts).Write(df.df)
}
