package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const migrationUpTemplate = `-- Migration: {{.Name}} ({{.Driver}})
-- Created: {{.Timestamp}}
-- Description: {{.Description}}

`

const migrationDownTemplate = `-- Migration: {{.Name}} ({{.Driver}}, rollback)
-- Created: {{.Timestamp}}
-- Description: Rollback for {{.Description}}

`

// MigrationFile is one scaffolded up/down pair
type MigrationFile struct {
	Version     string
	Name        string
	Driver      string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration scaffolds the next numbered migration pair in the postgres
// and sqlite directories under root, so both schemas stay in step.
func CreateMigration(root, name, description string) ([]*MigrationFile, error) {
	base := sanitizeName(name)
	if base == "" {
		return nil, fmt.Errorf("invalid migration name %q", name)
	}

	dirs := map[string]string{
		DriverPostgres: filepath.Join(root, "postgres"),
		DriverSQLite:   filepath.Join(root, "sqlite"),
	}

	next := 0
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create migrations directory: %w", err)
		}
		existing, err := ListMigrations(dir)
		if err != nil {
			return nil, err
		}
		for _, m := range existing {
			if v := migrationVersion(m); v > next {
				next = v
			}
		}
	}
	version := fmt.Sprintf("%06d", next+1)
	timestamp := time.Now().Format(time.RFC3339)

	created := make([]*MigrationFile, 0, len(dirs))
	for _, driver := range []string{DriverPostgres, DriverSQLite} {
		dir := dirs[driver]
		mf := &MigrationFile{
			Version:     version,
			Name:        name,
			Driver:      driver,
			Description: description,
			Timestamp:   timestamp,
			UpPath:      filepath.Join(dir, version+"_"+base+".up.sql"),
			DownPath:    filepath.Join(dir, version+"_"+base+".down.sql"),
		}
		if err := createMigrationFile(mf.UpPath, migrationUpTemplate, mf); err != nil {
			removeCreated(created)
			return nil, fmt.Errorf("failed to create up migration: %w", err)
		}
		if err := createMigrationFile(mf.DownPath, migrationDownTemplate, mf); err != nil {
			_ = os.Remove(mf.UpPath)
			removeCreated(created)
			return nil, fmt.Errorf("failed to create down migration: %w", err)
		}
		created = append(created, mf)
	}
	return created, nil
}

func removeCreated(files []*MigrationFile) {
	for _, f := range files {
		_ = os.Remove(f.UpPath)
		_ = os.Remove(f.DownPath)
	}
}

func createMigrationFile(path, tmplContent string, data *MigrationFile) error {
	tmpl, err := template.New("migration").Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// migrationVersion parses the numeric prefix of a migration base name
func migrationVersion(baseName string) int {
	prefix, _, _ := strings.Cut(baseName, "_")
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0
	}
	return v
}

// sanitizeName converts a migration name to a safe file name format
func sanitizeName(name string) string {
	result := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			result = append(result, c)
		case c >= 'A' && c <= 'Z':
			result = append(result, c+'a'-'A')
		case c == ' ' || c == '-' || c == '_':
			if len(result) > 0 && result[len(result)-1] != '_' {
				result = append(result, '_')
			}
		}
	}
	return strings.TrimSuffix(string(result), "_")
}

// ListMigrations returns the base names of the up migrations in a directory
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	migrations := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			migrations = append(migrations, base)
		}
	}
	return migrations, nil
}
