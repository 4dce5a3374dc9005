package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const (
	driverName = "sqlite3"
	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"
)

// Store wraps the SQLite database backing the development API.
type Store struct {
	db   *sql.DB
	path string
}

// Employee is a stored employee record.
type Employee struct {
	ID            string
	Name          string
	MotherName    string
	FatherName    string
	Gender        string
	CountryCode   string
	StateCode     string
	Email         string
	Contact       string
	DOB           string
	ProfileName   string
	ProfileBase64 string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Country is a stored country lookup row.
type Country struct {
	Code string
	Name string
}

// State is a stored state lookup row. Code is unique per country only.
type State struct {
	Code        string
	Name        string
	CountryCode string
}

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownCountry indicates a state or employee references a missing country.
	ErrUnknownCountry = errors.New("unknown country")
)

// Open bootstraps the SQLite store at path. An empty path uses the default
// location under the user config dir.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		resolved, err := resolveDBPath()
		if err != nil {
			return nil, err
		}
		path = resolved
	}

	db, err := sql.Open(driverName, path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == MemoryPath {
		// every new connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases DB resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func resolveDBPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = os.Getenv("HOME")
		if base == "" {
			return "", fmt.Errorf("cannot resolve data dir: %w", err)
		}
	}
	dir := filepath.Join(base, "empdir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create db dir: %w", err)
	}
	return filepath.Join(dir, "empdir-dev.db"), nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS countries (
            code TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            position INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS states (
            country_code TEXT NOT NULL,
            code TEXT NOT NULL,
            name TEXT NOT NULL,
            position INTEGER NOT NULL,
            PRIMARY KEY (country_code, code),
            FOREIGN KEY(country_code) REFERENCES countries(code) ON DELETE CASCADE
        );`,
		`CREATE TABLE IF NOT EXISTS employees (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            mother_name TEXT NOT NULL,
            father_name TEXT NOT NULL,
            gender TEXT NOT NULL,
            country_code TEXT NOT NULL,
            state_code TEXT NOT NULL,
            email TEXT NOT NULL,
            contact TEXT NOT NULL,
            dob TEXT NOT NULL,
            profile_name TEXT,
            profile_base64 TEXT,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        );`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migrations: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// ListCountries returns countries in insertion order.
func (s *Store) ListCountries(ctx context.Context) ([]Country, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name FROM countries ORDER BY position, code`)
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	defer rows.Close()

	var countries []Country
	for rows.Next() {
		var c Country
		if err := rows.Scan(&c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		countries = append(countries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("countries rows: %w", err)
	}
	return countries, nil
}

// ListStates returns every state, grouped by country order then insertion order.
func (s *Store) ListStates(ctx context.Context) ([]State, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT s.code, s.name, s.country_code
        FROM states s
        JOIN countries c ON c.code = s.country_code
        ORDER BY c.position, s.position, s.code`)
	if err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	defer rows.Close()

	var states []State
	for rows.Next() {
		var st State
		if err := rows.Scan(&st.Code, &st.Name, &st.CountryCode); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("states rows: %w", err)
	}
	return states, nil
}

// UpsertCountry inserts a country or renames an existing one.
func (s *Store) UpsertCountry(ctx context.Context, c Country) error {
	code := strings.TrimSpace(c.Code)
	if code == "" {
		return fmt.Errorf("country code required")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO countries (code, name, position)
        VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM countries))
        ON CONFLICT(code) DO UPDATE SET name = excluded.name`, code, strings.TrimSpace(c.Name))
	if err != nil {
		return fmt.Errorf("upsert country: %w", err)
	}
	return nil
}

// UpsertState inserts a state under its country or renames an existing one.
func (s *Store) UpsertState(ctx context.Context, st State) error {
	code := strings.TrimSpace(st.Code)
	parent := strings.TrimSpace(st.CountryCode)
	if code == "" {
		return fmt.Errorf("state code required")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO states (country_code, code, name, position)
        VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM states WHERE country_code = ?))
        ON CONFLICT(country_code, code) DO UPDATE SET name = excluded.name`, parent, code, strings.TrimSpace(st.Name), parent)
	if err != nil {
		if isForeignKeyConstraint(err) {
			return fmt.Errorf("state %s: %w %q", code, ErrUnknownCountry, parent)
		}
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

// ListEmployees loads all employees ordered alphabetically.
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("employees rows: %w", err)
	}
	return employees, nil
}

// EmployeeByID retrieves an employee by its identifier.
func (s *Store) EmployeeByID(ctx context.Context, id string) (*Employee, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	emp, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &emp, nil
}

// SaveEmployee inserts e when its ID is empty, assigning one, and updates the
// existing row otherwise.
func (s *Store) SaveEmployee(ctx context.Context, e *Employee) error {
	if e == nil {
		return fmt.Errorf("nil employee")
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("employee name required")
	}
	now := time.Now().UTC()
	e.UpdatedAt = now
	if strings.TrimSpace(e.ID) == "" {
		e.ID = uuid.NewString()
		e.CreatedAt = now
		_, err := s.db.ExecContext(ctx, `INSERT INTO employees (id, name, mother_name, father_name, gender, country_code, state_code, email, contact, dob, profile_name, profile_base64, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Name, e.MotherName, e.FatherName, e.Gender, e.CountryCode, e.StateCode, e.Email, e.Contact, e.DOB,
			nullString(e.ProfileName), nullString(e.ProfileBase64), now.Format(time.RFC3339), now.Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("insert employee: %w", err)
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx, `UPDATE employees SET name = ?, mother_name = ?, father_name = ?, gender = ?, country_code = ?, state_code = ?, email = ?, contact = ?, dob = ?, profile_name = ?, profile_base64 = ?, updated_at = ? WHERE id = ?`,
		e.Name, e.MotherName, e.FatherName, e.Gender, e.CountryCode, e.StateCode, e.Email, e.Contact, e.DOB,
		nullString(e.ProfileName), nullString(e.ProfileBase64), now.Format(time.RFC3339), e.ID)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEmployee removes an employee. A missing id yields ErrNotFound.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

const employeeColumns = `id, name, mother_name, father_name, gender, country_code, state_code, email, contact, dob, profile_name, profile_base64, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(rs rowScanner) (Employee, error) {
	var e Employee
	var profileName, profileBody sql.NullString
	var created, updated string
	if err := rs.Scan(&e.ID, &e.Name, &e.MotherName, &e.FatherName, &e.Gender, &e.CountryCode, &e.StateCode,
		&e.Email, &e.Contact, &e.DOB, &profileName, &profileBody, &created, &updated); err != nil {
		return Employee{}, err
	}
	e.ProfileName = nullStringToString(profileName)
	e.ProfileBase64 = nullStringToString(profileBody)
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		e.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		e.UpdatedAt = t
	}
	return e, nil
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullString(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

func isForeignKeyConstraint(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key")
}
