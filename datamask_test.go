package datamask_test

import (
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/datamask"
)

func TestDataFrame_Basics(t *testing.T) {
	mem := memory.NewGoAllocator()

	names := datamask.NewSeries("name", []string{"Alice", "Bob", "Charlie"}, mem)
	ages := datamask.NewSeries("age", []int64{25, 30, 35}, mem)
	defer names.Release()
	defer ages.Release()

	df := datamask.NewDataFrame(names, ages)
	defer df.Release()

	if df.Len() != 3 {
		t.Errorf("Expected 3 rows, got %d", df.Len())
	}

	if df.Width() != 2 {
		t.Errorf("Expected 2 columns, got %d", df.Width())
	}

	cols := df.Columns()
	if len(cols) != 2 || cols[0] != "name" || cols[1] != "age" {
		t.Errorf("Expected columns [name age], got %v", cols)
	}
}

func TestDataFrame_HasColumn(t *testing.T) {
	mem := memory.NewGoAllocator()

	names := datamask.NewSeries("name", []string{"Alice", "Bob", "Charlie"}, mem)
	defer names.Release()

	df := datamask.NewDataFrame(names)
	defer df.Release()

	if !df.HasColumn("name") {
		t.Error("Expected to have column 'name'")
	}

	if df.HasColumn("age") {
		t.Error("Expected to not have column 'age'")
	}
}

func TestDataFrame_Column(t *testing.T) {
	mem := memory.NewGoAllocator()

	ages := datamask.NewSeries("age", []int64{25, 30}, mem)
	defer ages.Release()

	df := datamask.NewDataFrame(ages)
	defer df.Release()

	col, ok := df.Column("age")
	if !ok {
		t.Fatal("Expected column 'age' to exist")
	}

	if col.Len() != 2 {
		t.Errorf("Expected 2 rows, got %d", col.Len())
	}

	if _, ok := df.Column("missing"); ok {
		t.Error("Expected column 'missing' to not exist")
	}
}

func TestDataFrame_String(t *testing.T) {
	mem := memory.NewGoAllocator()

	names := datamask.NewSeries("name", []string{"Alice", "Bob"}, mem)
	ages := datamask.NewSeries("age", []int64{25, 30}, mem)
	defer names.Release()
	defer ages.Release()

	df := datamask.NewDataFrame(names, ages)
	defer df.Release()

	expected := `DataFrame[2x2]
  name: utf8
  age: int64`
	if !strings.Contains(df.String(), expected) {
		t.Errorf("Expected\n%s\ngot\n%s", expected, df.String())
	}
}

func TestNewSeriesFromArray(t *testing.T) {
	mem := memory.NewGoAllocator()

	builder := array.NewInt64Builder(mem)
	builder.Append(1)
	builder.Append(2)
	builder.Append(3)
	arr := builder.NewArray()
	builder.Release()
	defer arr.Release()

	s := datamask.NewSeriesFromArray("values", arr)
	defer s.Release()

	if s.Name() != "values" {
		t.Errorf("Expected name 'values', got '%s'", s.Name())
	}

	if s.Len() != 3 {
		t.Errorf("Expected 3 rows, got %d", s.Len())
	}
}

func TestExpression_String(t *testing.T) {
	sum := datamask.Col("x").Add(datamask.Col("y"))
	if sum.String() != "(col(x) + col(y))" {
		t.Errorf("Expected '(col(x) + col(y))', got '%s'", sum.String())
	}

	pred := datamask.Col("age").Gt(datamask.Lit(int64(25)))
	if pred.String() != "(col(age) > lit(25))" {
		t.Errorf("Expected '(col(age) > lit(25))', got '%s'", pred.String())
	}

	agg := datamask.Sum(datamask.Col("z"))
	if agg.String() != "sum(col(z))" {
		t.Errorf("Expected 'sum(col(z))', got '%s'", agg.String())
	}

	pronoun := datamask.Data("x")
	if pronoun.String() != ".data$x" {
		t.Errorf("Expected '.data$x', got '%s'", pronoun.String())
	}
}

func TestReservedNames(t *testing.T) {
	if datamask.GroupSizeName != "..group_size" {
		t.Errorf("Expected '..group_size', got '%s'", datamask.GroupSizeName)
	}

	if datamask.GroupNumberName != "..group_number" {
		t.Errorf("Expected '..group_number', got '%s'", datamask.GroupNumberName)
	}

	if datamask.DataPronounName != ".data" {
		t.Errorf("Expected '.data', got '%s'", datamask.DataPronounName)
	}
}
