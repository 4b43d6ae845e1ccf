package accounts

import (
	"embed"
)

//go:embed data/sql/migrations/*.sql
var migrationsFS embed.FS

//go:embed data/templates/email/*.txt
var emailTemplatesFS embed.FS

// MigrationsDir is the path of the migrations inside GetMigrationsFS
const MigrationsDir = "data/sql/migrations"

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// GetEmailTemplatesFS returns the activation email templates
func GetEmailTemplatesFS() embed.FS {
	return emailTemplatesFS
}
