package preflight

import (
	"fmt"
	"log"
	"os"

	"focusnotebook/internal/database"
)

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string // "pass", "fail", "warning"
	Message string
	Error   error
}

// Checker performs pre-flight checks before the server starts serving
type Checker struct {
	db *database.DB
}

// NewChecker creates a new preflight checker
func NewChecker(db *database.DB) *Checker {
	return &Checker{db: db}
}

// RunAll runs all preflight checks and returns results
func (c *Checker) RunAll() []CheckResult {
	log.Println("🔍 Running pre-flight checks...")

	results := []CheckResult{
		c.checkDatabaseConnection(),
		c.checkProviderRegistrySchema(),
		c.checkProductionSecrets(),
		c.checkUploadDirectory(),
	}

	passed := 0
	failed := 0
	warnings := 0

	for _, result := range results {
		switch result.Status {
		case "pass":
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case "fail":
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case "warning":
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("\n📊 Pre-flight summary: %d passed, %d failed, %d warnings\n", passed, failed, warnings)

	return results
}

// HasFailures returns true if any check failed
func HasFailures(results []CheckResult) bool {
	for _, result := range results {
		if result.Status == "fail" {
			return true
		}
	}
	return false
}

// checkDatabaseConnection verifies provider registry connectivity
func (c *Checker) checkDatabaseConnection() CheckResult {
	if err := c.db.Ping(); err != nil {
		return CheckResult{
			Name:    "Database Connection",
			Status:  "fail",
			Message: "Cannot connect to MySQL",
			Error:   err,
		}
	}

	return CheckResult{
		Name:    "Database Connection",
		Status:  "pass",
		Message: "MySQL connection successful",
	}
}

// checkProviderRegistrySchema verifies the providers table exists
func (c *Checker) checkProviderRegistrySchema() CheckResult {
	var count int
	query := "SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?"
	err := c.db.QueryRow(query, "providers").Scan(&count)
	if err != nil || count == 0 {
		return CheckResult{
			Name:    "Provider Registry Schema",
			Status:  "fail",
			Message: "Required table 'providers' not found",
			Error:   err,
		}
	}

	return CheckResult{
		Name:    "Provider Registry Schema",
		Status:  "pass",
		Message: "Provider registry schema present",
	}
}

// checkProductionSecrets verifies secrets that must never be defaulted in
// production
func (c *Checker) checkProductionSecrets() CheckResult {
	if os.Getenv("ENVIRONMENT") != "production" {
		return CheckResult{
			Name:    "Secrets",
			Status:  "pass",
			Message: "Development mode, secrets may use defaults",
		}
	}

	missing := []string{}
	for _, name := range []string{"JWT_SECRET", "ENCRYPTION_MASTER_KEY"} {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return CheckResult{
			Name:    "Secrets",
			Status:  "fail",
			Message: fmt.Sprintf("Missing required secrets in production: %v", missing),
		}
	}

	return CheckResult{
		Name:    "Secrets",
		Status:  "pass",
		Message: "All production secrets configured",
	}
}

// checkUploadDirectory verifies the upload directory is writable
func (c *Checker) checkUploadDirectory() CheckResult {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "./uploads"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return CheckResult{
			Name:    "Upload Directory",
			Status:  "fail",
			Message: fmt.Sprintf("Cannot create upload directory %s", dir),
			Error:   err,
		}
	}

	probe, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return CheckResult{
			Name:    "Upload Directory",
			Status:  "fail",
			Message: fmt.Sprintf("Upload directory %s is not writable", dir),
			Error:   err,
		}
	}
	probe.Close()
	os.Remove(probe.Name())

	return CheckResult{
		Name:    "Upload Directory",
		Status:  "pass",
		Message: fmt.Sprintf("Upload directory %s is writable", dir),
	}
}
