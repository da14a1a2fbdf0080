package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/person-admin/internal/domain"
)

// PersonRepository reads person records.
type PersonRepository interface {
	List(ctx context.Context, filter PersonFilter) ([]domain.Person, int, error)
}

// PersonFilter defines query params for person listing. A nil Role or
// EmployeeType matches everything.
type PersonFilter struct {
	Search       string
	Role         *domain.PersonRole
	EmployeeType *domain.EmployeeType
	SortField    domain.PersonField
	SortDesc     bool
	Limit        int
	Offset       int
}

var personSortColumns = map[domain.PersonField]string{
	domain.PersonFieldID:           "id",
	domain.PersonFieldFirstName:    "first_name",
	domain.PersonFieldLastName:     "last_name",
	domain.PersonFieldEmail:        "email",
	domain.PersonFieldRole:         "role",
	domain.PersonFieldEmployeeType: "employee_type",
}

type personRepository struct {
	pool *pgxpool.Pool
}

// NewPersonRepository returns a Postgres-backed implementation.
func NewPersonRepository(pool *pgxpool.Pool) PersonRepository {
	return &personRepository{pool: pool}
}

func (r *personRepository) List(ctx context.Context, filter PersonFilter) ([]domain.Person, int, error) {
	query, args := buildPersonListQuery(filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []domain.Person{}
	total := 0
	for rows.Next() {
		var p domain.Person
		if err := rows.Scan(
			&p.ID,
			&p.FirstName,
			&p.LastName,
			&p.Email,
			&p.Role,
			&p.EmployeeType,
			&total,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// An offset past the end returns no rows and so no window count.
	if len(result) == 0 && filter.Offset > 0 {
		countQuery, countArgs := buildPersonCountQuery(filter)
		if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
			return nil, 0, err
		}
	}
	return result, total, nil
}

func personWhere(filter PersonFilter) (string, []any) {
	args := []any{}
	clauses := []string{}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", n, n, n))
	}
	if filter.Role != nil {
		args = append(args, string(*filter.Role))
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.EmployeeType != nil {
		args = append(args, string(*filter.EmployeeType))
		clauses = append(clauses, fmt.Sprintf("employee_type=$%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func buildPersonListQuery(filter PersonFilter) (string, []any) {
	where, args := personWhere(filter)
	query := `
        SELECT id, first_name, last_name, email, role, employee_type, count(*) OVER ()
        FROM people` + where

	column, ok := personSortColumns[filter.SortField]
	if !ok {
		column = "id"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", column, direction)
	if column != "id" {
		query += ", id ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	return query, args
}

func buildPersonCountQuery(filter PersonFilter) (string, []any) {
	where, args := personWhere(filter)
	return "SELECT count(*) FROM people" + where, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
