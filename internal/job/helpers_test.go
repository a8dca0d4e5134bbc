package job

import "github.com/klytics/sheetmerge/internal/consolidate"

func consolidateColumns() consolidate.Columns {
	return consolidate.Columns{ClassName: 1, ClassNumber: 2, Grouping: 3, Value: 4}
}
