/*
Package sqlite provides a SQLite-backed implementation of workforce.Store.

PURPOSE:
  Holds the five staffing collections (employees, projects, accounts,
  allocations, transitions) plus the skill directory. The service layer only
  ever asks for "rows matching a filter" or "change one row by id".

KEY TABLES:
  employees:            Directory records (skill tags as JSON arrays)
  projects:             Lifecycle status and dates
  accounts:             Clients owning projects
  allocations:          Employee x project x period x percent
  transitions:          Immutable history written on removal
  transition_comments:  Threaded notes on a transition
  skills, employee_skills: Skill directory and its join table

INDEXES:
  - idx_allocations_employee / idx_allocations_project: utilization reads
  - idx_employees_code: unique employee codes (empty codes exempt)
  - idx_transitions_employee: history per person

CONCURRENCY:
  Uses sync.RWMutex around the handle, WAL journal for readers. There is no
  optimistic locking: concurrent edits of the same row are last-write-wins.

USAGE:
  store, err := sqlite.New("./data/talentmap.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - workforce/store.go: Interface definitions
  - workforce/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

// Store implements workforce.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ workforce.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection (health endpoint).
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		entity TEXT,
		industry TEXT,
		contact_email TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		entity TEXT,
		employment_type TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		primary_skills_json TEXT,
		secondary_skills_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		status_changed_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_employees_code
		ON employees(code) WHERE code != '';
	CREATE INDEX IF NOT EXISTS idx_employees_status
		ON employees(status);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		entity TEXT,
		account_id TEXT REFERENCES accounts(id),
		status TEXT NOT NULL DEFAULT 'proposal',
		start_date TEXT NOT NULL,
		end_date TEXT,
		description TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_status
		ON projects(status);
	CREATE INDEX IF NOT EXISTS idx_projects_account
		ON projects(account_id);

	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		project_id TEXT NOT NULL REFERENCES projects(id),
		percent TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		role TEXT,
		status TEXT NOT NULL DEFAULT 'Active',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_employee
		ON allocations(employee_id, start_date);
	CREATE INDEX IF NOT EXISTS idx_allocations_project
		ON allocations(project_id);

	-- Transitions outlive the allocation they close, so no FK to allocations.
	CREATE TABLE IF NOT EXISTS transitions (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		allocation_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		percent TEXT NOT NULL,
		role TEXT,
		status TEXT NOT NULL DEFAULT 'completed',
		manager_name TEXT,
		remarks TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transitions_employee
		ON transitions(employee_id);
	CREATE INDEX IF NOT EXISTS idx_transitions_project
		ON transitions(project_id);

	CREATE TABLE IF NOT EXISTS transition_comments (
		id TEXT PRIMARY KEY,
		transition_id TEXT NOT NULL REFERENCES transitions(id) ON DELETE CASCADE,
		author TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transition_comments_transition
		ON transition_comments(transition_id, created_at);

	CREATE TABLE IF NOT EXISTS skills (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT
	);

	CREATE TABLE IF NOT EXISTS employee_skills (
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		skill_id TEXT NOT NULL REFERENCES skills(id),
		level TEXT NOT NULL,
		PRIMARY KEY (employee_id, skill_id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset clears all data.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"employee_skills", "skills", "transition_comments", "transitions",
		"allocations", "projects", "employees", "accounts",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, name, email, code, entity, employment_type, status,
	primary_skills_json, secondary_skills_json, created_at, updated_at, status_changed_at`

// SaveEmployee inserts or replaces an employee.
func (s *Store) SaveEmployee(ctx context.Context, e workforce.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	primary, _ := json.Marshal(nonNil(e.PrimarySkills))
	secondary, _ := json.Marshal(nonNil(e.SecondarySkills))

	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			code = excluded.code,
			entity = excluded.entity,
			employment_type = excluded.employment_type,
			status = excluded.status,
			primary_skills_json = excluded.primary_skills_json,
			secondary_skills_json = excluded.secondary_skills_json,
			updated_at = excluded.updated_at,
			status_changed_at = excluded.status_changed_at
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.Name, e.Email, e.Code, nullString(e.Entity), nullString(e.EmploymentType), e.Status,
		string(primary), string(secondary),
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt), formatTime(e.StatusChangedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return workforce.ErrDuplicateCode
		}
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee returns nil, nil when the employee does not exist.
func (s *Store) GetEmployee(ctx context.Context, id workforce.EmployeeID) (*workforce.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	e, err := scanEmployee(rows)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEmployees returns employees matching the filter, ordered by name.
func (s *Store) ListEmployees(ctx context.Context, f workforce.EmployeeFilter) ([]workforce.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Entity != "" {
		where = append(where, "entity = ?")
		args = append(args, f.Entity)
	}
	if f.EmploymentType != "" {
		where = append(where, "employment_type = ?")
		args = append(args, f.EmploymentType)
	}
	if f.Search != "" {
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(code) LIKE ?)")
		like := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, like, like, like)
	}

	query := `SELECT ` + employeeColumns + ` FROM employees` + whereClause(where) + ` ORDER BY name ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []workforce.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee.
func (s *Store) DeleteEmployee(ctx context.Context, id workforce.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return nil
}

func scanEmployee(rows *sql.Rows) (workforce.Employee, error) {
	var (
		e                       workforce.Employee
		entity, employmentType  sql.NullString
		primaryJSON, secondJSON sql.NullString
		createdAt, updatedAt    string
		statusChangedAt         string
	)

	err := rows.Scan(
		&e.ID, &e.Name, &e.Email, &e.Code, &entity, &employmentType, &e.Status,
		&primaryJSON, &secondJSON, &createdAt, &updatedAt, &statusChangedAt,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan employee: %w", err)
	}

	e.Entity = entity.String
	e.EmploymentType = employmentType.String
	if primaryJSON.Valid && primaryJSON.String != "" {
		json.Unmarshal([]byte(primaryJSON.String), &e.PrimarySkills)
	}
	if secondJSON.Valid && secondJSON.String != "" {
		json.Unmarshal([]byte(secondJSON.String), &e.SecondarySkills)
	}
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	e.StatusChangedAt = parseTime(statusChangedAt)
	return e, nil
}

// =============================================================================
// PROJECTS
// =============================================================================

const projectColumns = `id, name, entity, account_id, status, start_date, end_date,
	description, created_at, updated_at`

// SaveProject inserts or replaces a project.
func (s *Store) SaveProject(ctx context.Context, p workforce.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accountID sql.NullString
	if p.AccountID != nil {
		accountID = nullString(string(*p.AccountID))
	}

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			entity = excluded.entity,
			account_id = excluded.account_id,
			status = excluded.status,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			description = excluded.description,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, nullString(p.Entity), accountID, p.Status,
		p.StartDate.String(), nullDate(p.EndDate), nullString(p.Description),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// GetProject returns nil, nil when the project does not exist.
func (s *Store) GetProject(ctx context.Context, id workforce.ProjectID) (*workforce.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects, err := s.queryProjects(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	if err != nil || len(projects) == 0 {
		return nil, err
	}
	return &projects[0], nil
}

// ListProjects returns projects matching the filter, ordered by name.
func (s *Store) ListProjects(ctx context.Context, f workforce.ProjectFilter) ([]workforce.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Entity != "" {
		where = append(where, "entity = ?")
		args = append(args, f.Entity)
	}

	return s.queryProjects(ctx, `SELECT `+projectColumns+` FROM projects`+whereClause(where)+` ORDER BY name ASC`, args...)
}

// UpdateProjectStatus changes only the status column.
func (s *Store) UpdateProjectStatus(ctx context.Context, id workforce.ProjectID, status workforce.ProjectStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE projects SET status = ?, updated_at = ? WHERE id = ?",
		status, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	return requireAffected(res, workforce.ErrProjectNotFound)
}

// DeleteProject removes a project.
func (s *Store) DeleteProject(ctx context.Context, id workforce.ProjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]workforce.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []workforce.Project
	for rows.Next() {
		var (
			p                    workforce.Project
			entity, accountID    sql.NullString
			endDate, description sql.NullString
			createdAt, updatedAt string
		)
		err := rows.Scan(
			&p.ID, &p.Name, &entity, &accountID, &p.Status, &p.StartDate, &endDate,
			&description, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.Entity = entity.String
		if accountID.Valid && accountID.String != "" {
			id := workforce.AccountID(accountID.String)
			p.AccountID = &id
		}
		p.EndDate = parseNullDate(endDate)
		p.Description = description.String
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// SaveAccount inserts or replaces an account.
func (s *Store) SaveAccount(ctx context.Context, a workforce.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO accounts (id, name, entity, industry, contact_email, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			entity = excluded.entity,
			industry = excluded.industry,
			contact_email = excluded.contact_email
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.Name, nullString(a.Entity), nullString(a.Industry), nullString(a.ContactEmail),
		formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// GetAccount returns nil, nil when the account does not exist.
func (s *Store) GetAccount(ctx context.Context, id workforce.AccountID) (*workforce.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts, err := s.queryAccounts(ctx, `SELECT id, name, entity, industry, contact_email, created_at FROM accounts WHERE id = ?`, id)
	if err != nil || len(accounts) == 0 {
		return nil, err
	}
	return &accounts[0], nil
}

// ListAccounts returns all accounts ordered by name.
func (s *Store) ListAccounts(ctx context.Context) ([]workforce.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAccounts(ctx, `SELECT id, name, entity, industry, contact_email, created_at FROM accounts ORDER BY name ASC`)
}

// DeleteAccount removes an account.
func (s *Store) DeleteAccount(ctx context.Context, id workforce.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func (s *Store) queryAccounts(ctx context.Context, query string, args ...any) ([]workforce.Account, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []workforce.Account
	for rows.Next() {
		var (
			a                      workforce.Account
			entity, industry, mail sql.NullString
			createdAt              string
		)
		if err := rows.Scan(&a.ID, &a.Name, &entity, &industry, &mail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.Entity = entity.String
		a.Industry = industry.String
		a.ContactEmail = mail.String
		a.CreatedAt = parseTime(createdAt)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

const allocationColumns = `id, employee_id, project_id, percent, start_date, end_date,
	role, status, created_at, updated_at`

// SaveAllocation inserts or replaces an allocation.
func (s *Store) SaveAllocation(ctx context.Context, a workforce.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO allocations (` + allocationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			percent = excluded.percent,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			role = excluded.role,
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.EmployeeID, a.ProjectID, a.Percent.Value.String(),
		a.StartDate.String(), nullDate(a.EndDate), nullString(a.Role), a.Status,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save allocation: %w", err)
	}
	return nil
}

// GetAllocation returns nil, nil when the allocation does not exist.
func (s *Store) GetAllocation(ctx context.Context, id workforce.AllocationID) (*workforce.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allocs, err := s.queryAllocations(ctx, `SELECT `+allocationColumns+` FROM allocations WHERE id = ?`, id)
	if err != nil || len(allocs) == 0 {
		return nil, err
	}
	return &allocs[0], nil
}

// ListAllocations returns allocations matching the filter by start date.
func (s *Store) ListAllocations(ctx context.Context, f workforce.AllocationFilter) ([]workforce.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}

	query := `SELECT ` + allocationColumns + ` FROM allocations` + whereClause(where) + ` ORDER BY start_date ASC, id ASC`
	return s.queryAllocations(ctx, query, args...)
}

// DeleteAllocation removes an allocation; ErrAllocationNotFound if absent.
func (s *Store) DeleteAllocation(ctx context.Context, id workforce.AllocationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM allocations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete allocation: %w", err)
	}
	return requireAffected(res, workforce.ErrAllocationNotFound)
}

func (s *Store) queryAllocations(ctx context.Context, query string, args ...any) ([]workforce.Allocation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	var allocs []workforce.Allocation
	for rows.Next() {
		var (
			a                    workforce.Allocation
			percent              string
			endDate, role        sql.NullString
			createdAt, updatedAt string
		)
		err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.ProjectID, &percent, &a.StartDate, &endDate,
			&role, &a.Status, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		a.Percent = parsePercent(percent)
		a.EndDate = parseNullDate(endDate)
		a.Role = role.String
		a.CreatedAt = parseTime(createdAt)
		a.UpdatedAt = parseTime(updatedAt)
		allocs = append(allocs, a)
	}
	return allocs, rows.Err()
}

// =============================================================================
// TRANSITIONS (append-only; comments are the only later change)
// =============================================================================

const transitionColumns = `id, employee_id, project_id, allocation_id, start_date, end_date,
	percent, role, status, manager_name, remarks, created_at`

// CreateTransition appends a history row with its initial comments.
func (s *Store) CreateTransition(ctx context.Context, t workforce.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO transitions (`+transitionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.EmployeeID, t.ProjectID, t.AllocationID,
		t.StartDate.String(), t.EndDate.String(), t.Percent.Value.String(),
		nullString(t.Role), t.Status, nullString(t.ManagerName), nullString(t.Remarks),
		formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create transition: %w", err)
	}

	for _, c := range t.Comments {
		if err := insertComment(ctx, sqlTx, c); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// GetTransition returns nil, nil when the transition does not exist.
func (s *Store) GetTransition(ctx context.Context, id workforce.TransitionID) (*workforce.Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ts, err := s.queryTransitions(ctx, `SELECT `+transitionColumns+` FROM transitions WHERE id = ?`, id)
	if err != nil || len(ts) == 0 {
		return nil, err
	}
	return &ts[0], nil
}

// ListTransitions returns history newest first, with comments attached.
func (s *Store) ListTransitions(ctx context.Context, f workforce.TransitionFilter) ([]workforce.Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if f.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, f.ProjectID)
	}

	query := `SELECT ` + transitionColumns + ` FROM transitions` + whereClause(where) + ` ORDER BY created_at DESC`
	return s.queryTransitions(ctx, query, args...)
}

// AddComment appends a comment to an existing transition.
func (s *Store) AddComment(ctx context.Context, c workforce.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transitions WHERE id = ?", c.TransitionID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check transition: %w", err)
	}
	if exists == 0 {
		return workforce.ErrTransitionNotFound
	}
	return insertComment(ctx, s.db, c)
}

// DeleteComment removes one comment from a transition's thread.
func (s *Store) DeleteComment(ctx context.Context, transitionID workforce.TransitionID, id workforce.CommentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM transition_comments WHERE id = ? AND transition_id = ?", id, transitionID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return requireAffected(res, workforce.ErrCommentNotFound)
}

func insertComment(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, c workforce.Comment) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO transition_comments (id, transition_id, author, text, created_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.TransitionID, c.Author, c.Text, formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}

func (s *Store) queryTransitions(ctx context.Context, query string, args ...any) ([]workforce.Transition, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}

	var transitions []workforce.Transition
	for rows.Next() {
		var (
			t                     workforce.Transition
			percent               string
			role, manager, remark sql.NullString
			createdAt             string
		)
		err := rows.Scan(
			&t.ID, &t.EmployeeID, &t.ProjectID, &t.AllocationID, &t.StartDate, &t.EndDate,
			&percent, &role, &t.Status, &manager, &remark, &createdAt,
		)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		t.Percent = parsePercent(percent)
		t.Role = role.String
		t.ManagerName = manager.String
		t.Remarks = remark.String
		t.CreatedAt = parseTime(createdAt)
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Comments are loaded after the outer cursor is closed: the in-memory
	// database runs on a single connection.
	for i := range transitions {
		comments, err := s.queryComments(ctx, transitions[i].ID)
		if err != nil {
			return nil, err
		}
		transitions[i].Comments = comments
	}
	return transitions, nil
}

func (s *Store) queryComments(ctx context.Context, transitionID workforce.TransitionID) ([]workforce.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, transition_id, author, text, created_at FROM transition_comments WHERE transition_id = ? ORDER BY created_at ASC, id ASC",
		transitionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []workforce.Comment
	for rows.Next() {
		var (
			c         workforce.Comment
			createdAt string
		)
		if err := rows.Scan(&c.ID, &c.TransitionID, &c.Author, &c.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		c.CreatedAt = parseTime(createdAt)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// =============================================================================
// SKILLS
// =============================================================================

// SaveSkill inserts or replaces a directory skill.
func (s *Store) SaveSkill(ctx context.Context, sk workforce.Skill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO skills (id, name, category) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, category = excluded.category`,
		sk.ID, sk.Name, nullString(sk.Category),
	)
	if err != nil {
		return fmt.Errorf("failed to save skill: %w", err)
	}
	return nil
}

// ListSkills returns the directory ordered by name.
func (s *Store) ListSkills(ctx context.Context) ([]workforce.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, category FROM skills ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	var skills []workforce.Skill
	for rows.Next() {
		var (
			sk       workforce.Skill
			category sql.NullString
		)
		if err := rows.Scan(&sk.ID, &sk.Name, &category); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		sk.Category = category.String
		skills = append(skills, sk)
	}
	return skills, rows.Err()
}

// SetEmployeeSkills replaces the employee's skill links atomically.
func (s *Store) SetEmployeeSkills(ctx context.Context, id workforce.EmployeeID, skills []workforce.EmployeeSkill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM employee_skills WHERE employee_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear skills: %w", err)
	}
	for _, sk := range skills {
		_, err := sqlTx.ExecContext(ctx,
			"INSERT INTO employee_skills (employee_id, skill_id, level) VALUES (?, ?, ?)",
			id, sk.SkillID, sk.Level,
		)
		if err != nil {
			if isForeignKeyError(err) {
				return workforce.ErrSkillNotFound
			}
			return fmt.Errorf("failed to link skill: %w", err)
		}
	}
	return sqlTx.Commit()
}

// GetEmployeeSkills returns the employee's skill links.
func (s *Store) GetEmployeeSkills(ctx context.Context, id workforce.EmployeeID) ([]workforce.EmployeeSkill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT employee_id, skill_id, level FROM employee_skills WHERE employee_id = ? ORDER BY level ASC, skill_id ASC", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee skills: %w", err)
	}
	defer rows.Close()

	var links []workforce.EmployeeSkill
	for rows.Next() {
		var l workforce.EmployeeSkill
		if err := rows.Scan(&l.EmployeeID, &l.SkillID, &l.Level); err != nil {
			return nil, fmt.Errorf("failed to scan employee skill: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(d *workforce.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(s sql.NullString) *workforce.Date {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := workforce.ParseDate(s.String)
	if err != nil {
		return nil
	}
	return &d
}

func parsePercent(s string) workforce.Percent {
	p, err := workforce.ParsePercent(s)
	if err != nil {
		return workforce.ZeroPercent
	}
	return p
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
