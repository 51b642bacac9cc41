package io

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/datamask/internal/dataframe"
	"github.com/paveg/datamask/internal/series"
)

const (
	trueStr  = "true"
	falseStr = "false"

	typeBool   = "bool"
	typeInt    = "int"
	typeFloat  = "float"
	typeString = "string"
)

// Read reads CSV data and returns a DataFrame. Empty cells become
// nulls in typed columns and empty strings in string columns.
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) == 0 {
		return dataframe.New(), nil
	}

	var headers []string
	var dataRows [][]string

	if r.options.Header {
		headers = records[0]
		dataRows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
		dataRows = records
	}

	// Transpose to column order. Short rows pad with empty cells,
	// which surface as nulls after inference.
	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) {
				columns[i][j] = row[i]
			}
		}
	}

	seriesList := make([]dataframe.ISeries, 0, len(headers))
	for i, header := range headers {
		seriesList = append(seriesList, r.buildColumn(header, columns[i]))
	}

	return dataframe.New(seriesList...), nil
}

func (r *CSVReader) buildColumn(name string, data []string) dataframe.ISeries {
	kind := typeString
	if r.options.TypeInference {
		kind = inferColumnType(data)
	}

	var arr arrow.Array
	switch kind {
	case typeBool:
		arr = r.buildBoolArray(data)
	case typeInt:
		arr = r.buildInt64Array(data)
	case typeFloat:
		arr = r.buildFloat64Array(data)
	default:
		return series.New(name, data, r.mem)
	}
	defer arr.Release()

	return series.FromArray(name, arr)
}

// inferColumnType determines the narrowest type all non-empty values
// of a column parse as. Precedence is bool, int, float, string.
func inferColumnType(data []string) string {
	canBeInt := true
	canBeFloat := true
	canBeBool := true
	hasValue := false

	for _, value := range data {
		if value == "" {
			continue
		}
		hasValue = true

		if canBeBool {
			lower := strings.ToLower(value)
			if lower != trueStr && lower != falseStr {
				canBeBool = false
			}
		}
		if canBeInt {
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				canBeInt = false
			}
		}
		if canBeFloat {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				canBeFloat = false
			}
		}
	}

	if !hasValue {
		return typeString
	}
	if canBeBool {
		return typeBool
	}
	if canBeInt {
		return typeInt
	}
	if canBeFloat {
		return typeFloat
	}
	return typeString
}

func (r *CSVReader) buildBoolArray(data []string) arrow.Array {
	builder := array.NewBooleanBuilder(r.mem)
	defer builder.Release()

	for _, value := range data {
		if value == "" {
			builder.AppendNull()
			continue
		}
		builder.Append(strings.EqualFold(value, trueStr))
	}
	return builder.NewArray()
}

func (r *CSVReader) buildInt64Array(data []string) arrow.Array {
	builder := array.NewInt64Builder(r.mem)
	defer builder.Release()

	for _, value := range data {
		if value == "" {
			builder.AppendNull()
			continue
		}
		v, _ := strconv.ParseInt(value, 10, 64)
		builder.Append(v)
	}
	return builder.NewArray()
}

func (r *CSVReader) buildFloat64Array(data []string) arrow.Array {
	builder := array.NewFloat64Builder(r.mem)
	defer builder.Release()

	for _, value := range data {
		if value == "" {
			builder.AppendNull()
			continue
		}
		v, _ := strconv.ParseFloat(value, 64)
		builder.Append(v)
	}
	return builder.NewArray()
}

// Write writes the DataFrame to CSV format. Nulls render as empty
// cells.
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.options.Delimiter
	defer csvWriter.Flush()

	names := df.Columns()
	if w.options.Header {
		if err := csvWriter.Write(names); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	// Materialize each column once instead of per cell.
	arrays := make([]arrow.Array, len(names))
	for j, name := range names {
		column, ok := df.Column(name)
		if !ok {
			return fmt.Errorf("writing CSV: column %s missing", name)
		}
		arrays[j] = column.Array()
		defer arrays[j].Release()
	}

	row := make([]string, len(names))
	for i := 0; i < df.Len(); i++ {
		for j := range arrays {
			row[j] = formatValue(arrays[j], i)
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	return nil
}

func formatValue(arr arrow.Array, index int) string {
	if arr.IsNull(index) {
		return ""
	}

	switch typed := arr.(type) {
	case *array.String:
		return typed.Value(index)
	case *array.Int64:
		return strconv.FormatInt(typed.Value(index), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(typed.Value(index)), 10)
	case *array.Float64:
		return strconv.FormatFloat(typed.Value(index), 'g', -1, 64)
	case *array.Float32:
		return strconv.FormatFloat(float64(typed.Value(index)), 'g', -1, 32)
	case *array.Boolean:
		if typed.Value(index) {
			return trueStr
		}
		return falseStr
	default:
		return ""
	}
}
