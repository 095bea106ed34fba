/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types in
  workforce/ carry no JSON tags; these types are the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients (when the staffing input type
    is not used directly)
  - *Response: Complex response wrappers

VALIDATION:
  Field validation runs in the staffing service (validator/v10 tags on its
  input types). DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - staffing/*.go: Input types decoded straight from request bodies
*/
package api

import (
	"time"

	"github.com/haashirideassion/workforcemanagement-sub000/board"
	"github.com/haashirideassion/workforcemanagement-sub000/staffing"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

// =============================================================================
// DIRECTORY
// =============================================================================

type EmployeeDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Code            string   `json:"code,omitempty"`
	Entity          string   `json:"entity,omitempty"`
	EmploymentType  string   `json:"employment_type,omitempty"`
	Status          string   `json:"status"`
	PrimarySkills   []string `json:"primary_skills"`
	SecondarySkills []string `json:"secondary_skills"`
	CreatedAt       string   `json:"created_at,omitempty"`
	UpdatedAt       string   `json:"updated_at,omitempty"`
}

func toEmployeeDTO(e workforce.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:              string(e.ID),
		Name:            e.Name,
		Email:           e.Email,
		Code:            e.Code,
		Entity:          e.Entity,
		EmploymentType:  e.EmploymentType,
		Status:          string(e.Status),
		PrimarySkills:   nonNil(e.PrimarySkills),
		SecondarySkills: nonNil(e.SecondarySkills),
		CreatedAt:       formatTime(e.CreatedAt),
		UpdatedAt:       formatTime(e.UpdatedAt),
	}
}

type ProjectDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Entity      string          `json:"entity,omitempty"`
	AccountID   *string         `json:"account_id"`
	Status      string          `json:"status"`
	StartDate   workforce.Date  `json:"start_date"`
	EndDate     *workforce.Date `json:"end_date"`
	Description string          `json:"description,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
}

func toProjectDTO(p workforce.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          string(p.ID),
		Name:        p.Name,
		Entity:      p.Entity,
		Status:      string(p.Status),
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Description: p.Description,
		CreatedAt:   formatTime(p.CreatedAt),
	}
	if p.AccountID != nil {
		id := string(*p.AccountID)
		dto.AccountID = &id
	}
	return dto
}

type AccountDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Entity       string `json:"entity,omitempty"`
	Industry     string `json:"industry,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

func toAccountDTO(a workforce.Account) AccountDTO {
	return AccountDTO{
		ID:           string(a.ID),
		Name:         a.Name,
		Entity:       a.Entity,
		Industry:     a.Industry,
		ContactEmail: a.ContactEmail,
		CreatedAt:    formatTime(a.CreatedAt),
	}
}

type SkillDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

type EmployeeSkillDTO struct {
	SkillID string `json:"skill_id"`
	Level   string `json:"level"`
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

type AllocationDTO struct {
	ID         string            `json:"id"`
	EmployeeID string            `json:"employee_id"`
	ProjectID  string            `json:"project_id"`
	Percent    workforce.Percent `json:"percent"`
	StartDate  workforce.Date    `json:"start_date"`
	EndDate    *workforce.Date   `json:"end_date"`
	Role       string            `json:"role,omitempty"`
	Status     string            `json:"status"`
}

func toAllocationDTO(a workforce.Allocation) AllocationDTO {
	return AllocationDTO{
		ID:         string(a.ID),
		EmployeeID: string(a.EmployeeID),
		ProjectID:  string(a.ProjectID),
		Percent:    a.Percent,
		StartDate:  a.StartDate,
		EndDate:    a.EndDate,
		Role:       a.Role,
		Status:     string(a.Status),
	}
}

func toAllocationDTOs(allocs []workforce.Allocation) []AllocationDTO {
	dtos := make([]AllocationDTO, len(allocs))
	for i, a := range allocs {
		dtos[i] = toAllocationDTO(a)
	}
	return dtos
}

// AllocationResponse is a successful write with the employee's new
// utilization and any soft warnings.
type AllocationResponse struct {
	Allocation  AllocationDTO             `json:"allocation"`
	Utilization workforce.UtilizationView `json:"utilization"`
	Warnings    []workforce.Warning       `json:"warnings"`
}

type RemoveAllocationRequest struct {
	ManagerName string          `json:"manager_name"`
	Remarks     string          `json:"remarks"`
	EndDate     *workforce.Date `json:"end_date"`
}

// RemovalResponse reports a removal. HistoryRecorded is false when the
// removal went ahead without its transition record.
type RemovalResponse struct {
	Removed         AllocationDTO             `json:"removed"`
	Transition      *TransitionDTO            `json:"transition"`
	Utilization     workforce.UtilizationView `json:"utilization"`
	HistoryRecorded bool                      `json:"history_recorded"`
}

type DraftResponse struct {
	Created     []AllocationDTO           `json:"created"`
	Updated     []AllocationDTO           `json:"updated"`
	Removed     []string                  `json:"removed"`
	Warnings    []workforce.Warning       `json:"warnings"`
	Utilization workforce.UtilizationView `json:"utilization"`
}

func toDraftResponse(res *staffing.DraftResult) DraftResponse {
	removed := make([]string, len(res.Removed))
	for i, id := range res.Removed {
		removed[i] = string(id)
	}
	return DraftResponse{
		Created:     toAllocationDTOs(res.Created),
		Updated:     toAllocationDTOs(res.Updated),
		Removed:     removed,
		Warnings:    nonNilWarnings(res.Warnings),
		Utilization: res.Utilization,
	}
}

// =============================================================================
// TRANSITIONS
// =============================================================================

type CommentDTO struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

func toCommentDTO(c workforce.Comment) CommentDTO {
	return CommentDTO{
		ID:        string(c.ID),
		Author:    c.Author,
		Text:      c.Text,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

type TransitionDTO struct {
	ID           string            `json:"id"`
	EmployeeID   string            `json:"employee_id"`
	ProjectID    string            `json:"project_id"`
	AllocationID string            `json:"allocation_id"`
	StartDate    workforce.Date    `json:"start_date"`
	EndDate      workforce.Date    `json:"end_date"`
	Percent      workforce.Percent `json:"percent"`
	Role         string            `json:"role,omitempty"`
	Status       string            `json:"status"`
	ManagerName  string            `json:"manager_name,omitempty"`
	Remarks      string            `json:"remarks,omitempty"`
	Comments     []CommentDTO      `json:"comments"`
	CreatedAt    string            `json:"created_at"`
}

func toTransitionDTO(t workforce.Transition) TransitionDTO {
	comments := make([]CommentDTO, len(t.Comments))
	for i, c := range t.Comments {
		comments[i] = toCommentDTO(c)
	}
	return TransitionDTO{
		ID:           string(t.ID),
		EmployeeID:   string(t.EmployeeID),
		ProjectID:    string(t.ProjectID),
		AllocationID: string(t.AllocationID),
		StartDate:    t.StartDate,
		EndDate:      t.EndDate,
		Percent:      t.Percent,
		Role:         t.Role,
		Status:       string(t.Status),
		ManagerName:  t.ManagerName,
		Remarks:      t.Remarks,
		Comments:     comments,
		CreatedAt:    formatTime(t.CreatedAt),
	}
}

// =============================================================================
// VIEWS
// =============================================================================

type EmployeeUtilizationDTO struct {
	workforce.UtilizationView
	Risk       workforce.BenchRisk `json:"risk"`
	BenchSince workforce.Date      `json:"bench_since"`
	Active     []AllocationDTO     `json:"active_allocations"`
}

type BenchEntryDTO struct {
	Employee    EmployeeDTO               `json:"employee"`
	Utilization workforce.UtilizationView `json:"utilization"`
	Risk        workforce.BenchRisk       `json:"risk"`
	BenchSince  workforce.Date            `json:"bench_since"`
}

type DashboardDTO struct {
	AsOf               workforce.Date                   `json:"as_of"`
	Headcount          int                              `json:"headcount"`
	BenchCount         int                              `json:"bench_count"`
	OverallocatedCount int                              `json:"overallocated_count"`
	AverageUtilization workforce.Percent                `json:"average_utilization"`
	ByClassification   map[workforce.Classification]int `json:"by_classification"`
	ByRisk             map[workforce.RiskLevel]int      `json:"by_risk"`
	ProjectsByStatus   map[workforce.ProjectStatus]int  `json:"projects_by_status"`
	Accounts           int                              `json:"accounts"`
}

type StatusChangeRequest struct {
	Status  string `json:"status"`
	Confirm bool   `json:"confirm"`
}

type ProjectStatusResponse struct {
	Project             ProjectDTO `json:"project"`
	AffectedAllocations int        `json:"affected_allocations"`
}

// =============================================================================
// BOARD
// =============================================================================

type BoardSessionDTO struct {
	ID string `json:"id"`
	board.View
}

type GrabRequest struct {
	EmployeeID string       `json:"employee_id"`
	Source     board.Source `json:"source"`
	At         board.Point  `json:"at"`
}

type ReleaseRequest struct {
	At board.Point `json:"at"`
}

type DropRequest struct {
	// ProjectID is empty for a drop outside any project.
	ProjectID string `json:"project_id"`
}

type RequestRemovalRequest struct {
	AllocationID string `json:"allocation_id"`
}

type BoardOutcomeDTO struct {
	board.Outcome
	Session    board.View     `json:"session"`
	Allocation *AllocationDTO `json:"allocation,omitempty"`
	Transition *TransitionDTO `json:"transition,omitempty"`
}

// =============================================================================
// ERRORS / SCENARIOS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilWarnings(w []workforce.Warning) []workforce.Warning {
	if w == nil {
		return []workforce.Warning{}
	}
	return w
}
