package entities

import "testing"

func TestParsePrivilege(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Privilege
		wantErr bool
	}{
		{
			name:  "select",
			input: "SELECT",
			want:  PrivilegeSelect,
		},
		{
			name:  "grant select",
			input: "GRANT_SELECT",
			want:  PrivilegeGrantSelect,
		},
		{
			name:  "ownership",
			input: "OWNERSHIP",
			want:  PrivilegeOwnership,
		},
		{
			name:    "lowercase is not recognized",
			input:   "select",
			wantErr: true,
		},
		{
			name:    "unknown privilege",
			input:   "TRUNCATE",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrivilege(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePrivilege(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParsePrivilege(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTableRule_HasPrivilege(t *testing.T) {
	rule := &TableRule{Privileges: []Privilege{PrivilegeSelect, PrivilegeInsert}}

	if !rule.HasPrivilege(PrivilegeSelect) {
		t.Error("HasPrivilege(SELECT) = false, want true")
	}
	if rule.HasPrivilege(PrivilegeDrop) {
		t.Error("HasPrivilege(DROP) = true, want false")
	}

	empty := &TableRule{}
	if empty.HasPrivilege(PrivilegeSelect) {
		t.Error("empty privilege list should grant nothing")
	}
}

func TestRuleSet_Validate(t *testing.T) {
	valid := &RuleSet{
		Tables: []TableRule{{Privileges: []Privilege{PrivilegeSelect}}},
		Views:  []TableRule{{Privileges: []Privilege{PrivilegeSelect}}},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	invalid := &RuleSet{
		Tables: []TableRule{{Privileges: []Privilege{"EXPLODE"}}},
	}
	if err := invalid.Validate(); err == nil {
		t.Error("Validate() with unknown privilege expected error")
	}
}
