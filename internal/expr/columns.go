package expr

// IsAggregationName reports whether name is one of the aggregation
// functions that reduce a partition to a single value.
func IsAggregationName(name string) bool {
	switch name {
	case AggNameSum, AggNameCount, AggNameMean, AggNameMin, AggNameMax:
		return true
	default:
		return false
	}
}

// FreeColumns returns the column names an expression reads, in first
// appearance order and without duplicates. Plain references and
// pronoun references both count.
func FreeColumns(e Expr) []string {
	var names []string
	seen := make(map[string]bool)
	collectColumns(e, seen, &names)
	return names
}

func collectColumns(e Expr, seen map[string]bool, names *[]string) {
	switch ex := e.(type) {
	case *ColumnExpr:
		if !seen[ex.Name()] {
			seen[ex.Name()] = true
			*names = append(*names, ex.Name())
		}
	case *DataExpr:
		if !seen[ex.Name()] {
			seen[ex.Name()] = true
			*names = append(*names, ex.Name())
		}
	case *BinaryExpr:
		collectColumns(ex.Left(), seen, names)
		collectColumns(ex.Right(), seen, names)
	case *UnaryExpr:
		collectColumns(ex.Operand(), seen, names)
	case *FunctionExpr:
		for _, arg := range ex.Args() {
			collectColumns(arg, seen, names)
		}
	}
}

// ContainsAggregation reports whether the expression tree holds an
// aggregation call anywhere.
func ContainsAggregation(e Expr) bool {
	switch ex := e.(type) {
	case *FunctionExpr:
		if IsAggregationName(ex.Name()) {
			return true
		}
		for _, arg := range ex.Args() {
			if ContainsAggregation(arg) {
				return true
			}
		}
	case *BinaryExpr:
		return ContainsAggregation(ex.Left()) || ContainsAggregation(ex.Right())
	case *UnaryExpr:
		return ContainsAggregation(ex.Operand())
	}
	return false
}
