package preflight

import (
	"testing"
)

func TestHasFailures(t *testing.T) {
	tests := []struct {
		name    string
		results []CheckResult
		want    bool
	}{
		{
			name: "all pass",
			results: []CheckResult{
				{Name: "a", Status: "pass"},
				{Name: "b", Status: "pass"},
			},
			want: false,
		},
		{
			name: "warning is not a failure",
			results: []CheckResult{
				{Name: "a", Status: "pass"},
				{Name: "b", Status: "warning"},
			},
			want: false,
		},
		{
			name: "one failure",
			results: []CheckResult{
				{Name: "a", Status: "pass"},
				{Name: "b", Status: "fail"},
			},
			want: true,
		},
		{
			name:    "empty",
			results: nil,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasFailures(tt.results); got != tt.want {
				t.Errorf("HasFailures() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProductionSecretsCheck(t *testing.T) {
	c := NewChecker(nil)

	t.Run("development passes without secrets", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "development")
		t.Setenv("JWT_SECRET", "")
		t.Setenv("ENCRYPTION_MASTER_KEY", "")

		result := c.checkProductionSecrets()
		if result.Status != "pass" {
			t.Errorf("status = %q, want pass", result.Status)
		}
	})

	t.Run("production fails without secrets", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("JWT_SECRET", "")
		t.Setenv("ENCRYPTION_MASTER_KEY", "")

		result := c.checkProductionSecrets()
		if result.Status != "fail" {
			t.Errorf("status = %q, want fail", result.Status)
		}
	})

	t.Run("production passes with secrets", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("ENCRYPTION_MASTER_KEY", "0000000000000000000000000000000000000000000000000000000000000000")

		result := c.checkProductionSecrets()
		if result.Status != "pass" {
			t.Errorf("status = %q, want pass", result.Status)
		}
	})
}

func TestUploadDirectoryCheck(t *testing.T) {
	c := NewChecker(nil)

	t.Setenv("UPLOAD_DIR", t.TempDir())
	result := c.checkUploadDirectory()
	if result.Status != "pass" {
		t.Errorf("status = %q, want pass (message: %s)", result.Status, result.Message)
	}
}
