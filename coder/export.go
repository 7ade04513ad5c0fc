package coder

// BuildExport produces the flat export table: the respondent id column
// followed by one 0/1 column per category per response column, grouped by
// response column in ledger display order. Cells for rows whose underlying
// value is missing are left blank. In Multi mode the Uncategorized columns
// are omitted, since a value belonging to zero or more real categories
// makes "uncategorized" a meaningless exported signal.
func BuildExport(store *ResponseStore, ledger *Ledger, mode Mode) (Table, error) {
	if store.Empty() {
		return Table{}, ErrNoDataset
	}

	categories := ledger.Categories()
	if mode == ModeMulti {
		kept := categories[:0]
		for _, name := range categories {
			if name != Uncategorized {
				kept = append(kept, name)
			}
		}
		categories = kept
	}

	columns := []string{store.IDColumn()}
	for _, col := range store.Columns() {
		for _, name := range categories {
			columns = append(columns, name+"_"+col)
		}
	}

	rows := make([][]string, store.Len())
	for row := range rows {
		cells := make([]string, 0, len(columns))
		cells = append(cells, store.ID(row))
		for _, col := range store.Columns() {
			for _, name := range categories {
				switch ledger.Membership(store, name, col, row) {
				case Member:
					cells = append(cells, "1")
				case NotMember:
					cells = append(cells, "0")
				default:
					cells = append(cells, "")
				}
			}
		}
		rows[row] = cells
	}
	return Table{Columns: columns, Rows: rows}, nil
}
