// Package directory exposes the employee directory collaborator. The
// aggregation engine only reads it to decorate responses; profiles are
// owned elsewhere.
package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEmployeeNotFound = errors.New("employee not found")

type Employee struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	AvatarURL string `json:"avatarUrl"`
}

type Directory interface {
	Employee(ctx context.Context, id string) (Employee, error)
}

type PGDirectory struct {
	DB *pgxpool.Pool
}

func NewPG(pool *pgxpool.Pool) *PGDirectory {
	return &PGDirectory{DB: pool}
}

func (d *PGDirectory) Employee(ctx context.Context, id string) (Employee, error) {
	var employee Employee
	err := d.DB.QueryRow(ctx, `
    SELECT id, full_name, COALESCE(title, ''), COALESCE(avatar_url, '')
    FROM employees
    WHERE id = $1
  `, id).Scan(&employee.ID, &employee.Name, &employee.Title, &employee.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return employee, nil
}
