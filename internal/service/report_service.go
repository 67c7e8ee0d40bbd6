package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/civiops/helpdesk-service/internal/domain"
	"github.com/civiops/helpdesk-service/internal/lifecycle"
	"github.com/civiops/helpdesk-service/internal/policy"
	"github.com/civiops/helpdesk-service/internal/repository"
	apperrors "github.com/civiops/helpdesk-service/pkg/util"
)

// ReportService renders read-only snapshots of the ticket table for a time
// window, with derived SLA verdicts. A retention sweep always runs before the
// snapshot query so reports reflect post-sweep state.
type ReportService struct {
	tickets   repository.TicketRepository
	retention *RetentionService
}

// NewReportService builds the service.
func NewReportService(tickets repository.TicketRepository, retention *RetentionService) *ReportService {
	return &ReportService{tickets: tickets, retention: retention}
}

// ReportLine is one exported ticket row.
type ReportLine struct {
	TicketID         string     `json:"ticket_id"`
	Title            string     `json:"title"`
	Category         string     `json:"category"`
	Status           string     `json:"status"`
	Tier             string     `json:"tier"`
	DeadlineLabel    string     `json:"deadline"`
	SLALabel         string     `json:"sla"`
	OrganizationName string     `json:"organization"`
	TechnicianName   string     `json:"technician"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// Snapshot is a report over one calendar month.
type Snapshot struct {
	Year        int          `json:"year"`
	Month       time.Month   `json:"month"`
	GeneratedAt time.Time    `json:"generated_at"`
	Swept       int64        `json:"swept"`
	Lines       []ReportLine `json:"lines"`
}

// MonthlySnapshot builds the report for the given calendar month. Provider
// admins see every organization; referents only their own.
func (s *ReportService) MonthlySnapshot(ctx context.Context, actor *domain.Identity, year int, month time.Month) (*Snapshot, error) {
	var orgScope *string
	if actor.Role != domain.RoleProviderAdmin {
		decision := policy.Authorize(actor, policy.ActionExportReport, policy.Resource{OrganizationID: actor.OrganizationID})
		if !decision.Allowed {
			return nil, apperrors.NewDenied(decision.Reason)
		}
		orgScope = actor.OrganizationID
	}

	now := time.Now()
	swept, err := s.retention.Sweep(ctx, now)
	if err != nil {
		return nil, err
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	rows, err := s.tickets.ListReportRows(ctx, from, to, orgScope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	snapshot := &Snapshot{
		Year:        year,
		Month:       month,
		GeneratedAt: now,
		Swept:       swept,
		Lines:       make([]ReportLine, 0, len(rows)),
	}
	for i := range rows {
		snapshot.Lines = append(snapshot.Lines, reportLine(&rows[i]))
	}
	return snapshot, nil
}

func reportLine(row *repository.ReportRow) ReportLine {
	t := &row.Ticket
	line := ReportLine{
		TicketID:         t.ID,
		Title:            t.Title,
		Category:         t.Category,
		Status:           string(t.Status),
		DeadlineLabel:    "Not defined",
		SLALabel:         lifecycle.EvaluateSLA(t).Label(),
		OrganizationName: row.OrganizationName,
		TechnicianName:   row.TechnicianName,
		CreatedAt:        t.CreatedAt,
		CompletedAt:      t.CompletedAt,
	}
	if t.Tier != nil {
		line.Tier = string(*t.Tier)
	}
	if t.DeadlineHours != nil {
		line.DeadlineLabel = fmt.Sprintf("%dh", *t.DeadlineHours)
	}
	return line
}

var reportHeader = []string{"Ticket", "Title", "Category", "Organization", "Technician", "Status", "Tier", "Deadline", "SLA", "Created", "Completed"}

// ExportXLSX renders the snapshot as a spreadsheet workbook.
func (s *ReportService) ExportXLSX(snapshot *Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("%04d-%02d", snapshot.Year, snapshot.Month)
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	for col, title := range reportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}

	for i, line := range snapshot.Lines {
		completed := ""
		if line.CompletedAt != nil {
			completed = line.CompletedAt.Format(time.RFC3339)
		}
		values := []any{
			line.TicketID,
			line.Title,
			line.Category,
			line.OrganizationName,
			line.TechnicianName,
			line.Status,
			line.Tier,
			line.DeadlineLabel,
			line.SLALabel,
			line.CreatedAt.Format(time.RFC3339),
			completed,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
