package datamask_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/datamask"
)

func TestReadCSV(t *testing.T) {
	mem := memory.NewGoAllocator()

	data := "region,amount\neast,10\neast,20\nwest,5\n"
	df, err := datamask.ReadCSV(strings.NewReader(data), datamask.DefaultCSVOptions(), mem)
	require.NoError(t, err)
	defer df.Release()

	assert.Equal(t, 3, df.Len())
	assert.Equal(t, []string{"region", "amount"}, df.Columns())

	// Inferred integer column evaluates like any other.
	mk, err := datamask.NewMask(df, datamask.MaskOptions{GroupBy: []string{"region"}})
	require.NoError(t, err)
	defer mk.Release()

	out, err := mk.EvalAll(datamask.Sum(datamask.Col("amount")))
	require.NoError(t, err)
	require.Len(t, out, 2)
	defer out[0].Release()
	defer out[1].Release()

	assert.Equal(t, []int64{30}, int64Values(t, out[0]))
	assert.Equal(t, []int64{5}, int64Values(t, out[1]))
}

func TestReadCSVFile(t *testing.T) {
	mem := memory.NewGoAllocator()

	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte("v\n1\n2\n"), 0o600))

	df, err := datamask.ReadCSVFile(path, datamask.DefaultCSVOptions(), mem)
	require.NoError(t, err)
	defer df.Release()

	assert.Equal(t, 2, df.Len())

	_, err = datamask.ReadCSVFile(filepath.Join(t.TempDir(), "missing.csv"),
		datamask.DefaultCSVOptions(), mem)
	require.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	mem := memory.NewGoAllocator()

	vs := datamask.NewSeries("v", []int64{1, 2}, mem)
	defer vs.Release()
	df := datamask.NewDataFrame(vs)
	defer df.Release()

	var buf bytes.Buffer
	require.NoError(t, datamask.WriteCSV(&buf, df, datamask.DefaultCSVOptions()))

	assert.Contains(t, buf.String(), "v")
	assert.Contains(t, buf.String(), "1")
	assert.Contains(t, buf.String(), "2")
}
