package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type seedEmployee struct {
	ID    string
	Name  string
	Title string
}

// Seed inserts a handful of directory rows for local development. The
// employee directory is owned elsewhere in production; these rows only
// make dashboards readable against an empty database.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	employees := []seedEmployee{
		{ID: "00000000-0000-0000-0000-000000000001", Name: "Amara Osei", Title: "Software Engineer"},
		{ID: "00000000-0000-0000-0000-000000000002", Name: "Jonas Keller", Title: "Account Manager"},
		{ID: "00000000-0000-0000-0000-000000000003", Name: "Priya Nair", Title: "Support Specialist"},
	}
	for _, employee := range employees {
		_, err := pool.Exec(ctx, `
      INSERT INTO employees (id, full_name, title)
      VALUES ($1, $2, $3)
      ON CONFLICT (id) DO NOTHING
    `, employee.ID, employee.Name, employee.Title)
		if err != nil {
			return err
		}
	}
	return nil
}
