package user

import "testing"

func TestCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr string
	}{
		{name: "valid with password", req: CreateRequest{Email: "a@b.com", Name: "A", Password: "12345678", Role: RoleAdmin}},
		{name: "valid invited (no password)", req: CreateRequest{Email: "a@b.com", Name: "A", Role: RoleEmployee}},
		{name: "missing email", req: CreateRequest{Name: "A", Role: RoleAdmin}, wantErr: "email is required"},
		{name: "invalid email", req: CreateRequest{Email: "bad", Name: "A", Role: RoleAdmin}, wantErr: "invalid email format"},
		{name: "missing name", req: CreateRequest{Email: "a@b.com", Role: RoleAdmin}, wantErr: "name is required"},
		{name: "short password", req: CreateRequest{Email: "a@b.com", Name: "A", Password: "short", Role: RoleAdmin}, wantErr: "password must be at least 8 characters"},
		{name: "invalid role", req: CreateRequest{Email: "a@b.com", Name: "A", Role: "superadmin"}, wantErr: "invalid role: must be ADMIN, MANAGER, HR, EMPLOYEE or ACCOUNTANT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.wantErr)
			}
			if got := err.Error(); got != tt.wantErr {
				t.Fatalf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestUpdateRequest_Validate(t *testing.T) {
	role := RoleHR
	badRole := Role("WIZARD")
	status := StatusInactive
	badStatus := Status("FROZEN")

	tests := []struct {
		name    string
		req     UpdateRequest
		wantErr string
	}{
		{name: "empty is valid", req: UpdateRequest{}},
		{name: "valid role", req: UpdateRequest{Role: &role}},
		{name: "valid status", req: UpdateRequest{Status: &status}},
		{name: "bad role", req: UpdateRequest{Role: &badRole}, wantErr: "invalid role"},
		{name: "bad status", req: UpdateRequest{Status: &badStatus}, wantErr: "invalid status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
