package tenant

import "testing"

func TestCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr bool
	}{
		{name: "valid", req: CreateRequest{Name: "Acme Corp", Slug: "acme"}},
		{name: "valid with hyphens", req: CreateRequest{Name: "Acme Corp", Slug: "acme-corp-eu"}},
		{name: "missing name", req: CreateRequest{Slug: "acme"}, wantErr: true},
		{name: "slug too short", req: CreateRequest{Name: "Acme", Slug: "ab"}, wantErr: true},
		{name: "slug uppercase", req: CreateRequest{Name: "Acme", Slug: "Acme"}, wantErr: true},
		{name: "slug leading hyphen", req: CreateRequest{Name: "Acme", Slug: "-acme"}, wantErr: true},
		{name: "slug trailing hyphen", req: CreateRequest{Name: "Acme", Slug: "acme-"}, wantErr: true},
		{name: "slug with spaces", req: CreateRequest{Name: "Acme", Slug: "acme corp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
