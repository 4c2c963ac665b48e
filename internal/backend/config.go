package backend

import (
	"fmt"
	"slices"

	"finance/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	targets := make([]TargetType, 0, len(appConfig.ExportTargets))
	for _, t := range appConfig.ExportTargets {
		target := TargetType(t)
		if !target.IsValid() {
			return Config{}, fmt.Errorf("invalid export target in config: %s", t)
		}
		targets = append(targets, target)
	}

	return Config{
		Targets: targets,

		DashboardPath:      appConfig.DashboardPath,
		DashboardCacheSize: appConfig.DashboardCacheSize,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleTransactionsSheet:  appConfig.GoogleTransactionsSheet,
		GoogleCategoriesSheet:    appConfig.GoogleCategoriesSheet,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

// Has reports whether target is configured.
func (c Config) Has(target TargetType) bool {
	return slices.Contains(c.Targets, target)
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one export target is required")
	}

	for _, target := range c.Targets {
		if !target.IsValid() {
			return fmt.Errorf("invalid export target: %s", target)
		}

		switch target {
		case DashboardTarget:
			if c.DashboardPath == "" {
				return fmt.Errorf("dashboard path is required for dashboard target")
			}

		case SQLiteTarget:
			if c.SQLiteDBPath == "" {
				return fmt.Errorf("SQLite database path is required for sqlite target")
			}

		case SheetsTarget:
			if c.GoogleSpreadsheetID == "" {
				return fmt.Errorf("Google Spreadsheet ID is required for sheets target")
			}
			// Explicit client options carry their own credentials
			if len(c.GoogleClientOptions) == 0 && c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
				return fmt.Errorf("either GoogleServiceAccountFile or GoogleServiceAccountJSON must be provided for sheets target")
			}

		case MemoryTarget:
			// Memory target doesn't require additional validation
		}
	}

	return nil
}

// GetTargetTypes returns all valid target types
func GetTargetTypes() []TargetType {
	return []TargetType{DashboardTarget, SQLiteTarget, SheetsTarget, MemoryTarget}
}

// GetTargetTypeStrings returns all valid target type strings
func GetTargetTypeStrings() []string {
	types := GetTargetTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
