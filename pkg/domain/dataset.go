package domain

// Row is a single record of a Dataset, keyed by column name.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Dataset is the tabular data passed between chained actions.
type Dataset struct {
	Object string `json:"object" yaml:"object"`
	Rows   []Row  `json:"rows" yaml:"rows"`
}

// NewDataset creates a dataset for the given object alias.
func NewDataset(object string, rows ...Row) *Dataset {
	if rows == nil {
		rows = []Row{}
	}
	return &Dataset{Object: object, Rows: rows}
}

// Len returns the number of rows. A nil dataset has no rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// IsEmpty reports whether the dataset carries no rows.
func (d *Dataset) IsEmpty() bool {
	return d.Len() == 0
}

// Clone copies the dataset and every row, so the copy can be mutated freely.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	rows := make([]Row, len(d.Rows))
	for i, r := range d.Rows {
		rows[i] = r.Clone()
	}
	return &Dataset{Object: d.Object, Rows: rows}
}

// Records converts the rows into plain maps, e.g. for expression evaluation.
func (d *Dataset) Records() []any {
	if d == nil {
		return nil
	}
	out := make([]any, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = map[string]any(r)
	}
	return out
}
