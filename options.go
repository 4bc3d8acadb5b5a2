package arnie

// UseLedgerTable overrides the ledger table name. The default is
// ledger.DefaultTable.
func UseLedgerTable(table string) OptionFunc {
	return func(m *Migrator) error {
		m.table = table
		return nil
	}
}
