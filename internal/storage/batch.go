package storage

// Batch is a set of rows bulk-loaded into one table.
type Batch struct {
	Table   string
	Columns []string
	Rows    [][]any
	// Serial marks tables with a bigserial id whose sequence must be moved
	// past the loaded ids.
	Serial bool
}
