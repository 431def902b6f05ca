package entities

import "testing"

func TestNames_String(t *testing.T) {
	schema := SchemaName{Catalog: "sales", Schema: "reports"}
	if got := schema.String(); got != "sales.reports" {
		t.Errorf("SchemaName.String() = %q, want %q", got, "sales.reports")
	}

	table := TableName{Catalog: "sales", Schema: "reports", Table: "daily"}
	if got := table.String(); got != "sales.reports.daily" {
		t.Errorf("TableName.String() = %q, want %q", got, "sales.reports.daily")
	}

	schemaTable := SchemaTableName{Schema: "reports", Table: "daily"}
	if got := schemaTable.String(); got != "reports.daily" {
		t.Errorf("SchemaTableName.String() = %q, want %q", got, "reports.daily")
	}
	if got := schemaTable.In("sales"); got != table {
		t.Errorf("SchemaTableName.In() = %v, want %v", got, table)
	}
}

func TestTableName_SchemaName(t *testing.T) {
	table := TableName{Catalog: "sales", Schema: "reports", Table: "daily"}
	want := SchemaName{Catalog: "sales", Schema: "reports"}
	if got := table.SchemaName(); got != want {
		t.Errorf("TableName.SchemaName() = %v, want %v", got, want)
	}
}

func TestNames_Validate(t *testing.T) {
	tests := []struct {
		name    string
		run     func() error
		wantErr bool
	}{
		{"valid schema", func() error { return SchemaName{Catalog: "c", Schema: "s"}.Validate() }, false},
		{"schema missing catalog", func() error { return SchemaName{Schema: "s"}.Validate() }, true},
		{"schema missing schema", func() error { return SchemaName{Catalog: "c"}.Validate() }, true},
		{"valid table", func() error { return TableName{Catalog: "c", Schema: "s", Table: "t"}.Validate() }, false},
		{"table missing table", func() error { return TableName{Catalog: "c", Schema: "s"}.Validate() }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPrincipal_String(t *testing.T) {
	if got := NewPrincipal("alice").String(); got != "alice" {
		t.Errorf("Principal.String() = %q, want %q", got, "alice")
	}

	withCredential := &Principal{Name: "alice", Credential: "alice@EXAMPLE.COM"}
	if got := withCredential.String(); got != "alice[alice@EXAMPLE.COM]" {
		t.Errorf("Principal.String() = %q, want %q", got, "alice[alice@EXAMPLE.COM]")
	}
}
