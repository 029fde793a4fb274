package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"eco-proof/community-portal/community-portal-backend/internal/ledger"
	"eco-proof/community-portal/community-portal-backend/internal/verification"
)

// Format is a supported download format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "xlsx"
	FormatPDF   Format = "pdf"
)

// Dataset names an exportable view of the portal data.
type Dataset string

const (
	DatasetLeaderboard   Dataset = "leaderboard"
	DatasetVerifications Dataset = "verifications"
)

var (
	// ErrUnknownDataset is returned for dataset names outside the table.
	ErrUnknownDataset = errors.New("unknown export dataset")
	// ErrUnknownFormat is returned for formats outside csv, xlsx and pdf.
	ErrUnknownFormat = errors.New("unknown export format")
)

// Column is one exported field: the row key and the human heading.
type Column struct {
	Key   string
	Label string
}

// Table is the rendered view a dataset produces: ordered columns, row maps
// keyed by column key, and short summary lines for the PDF header block.
type Table struct {
	Title   string
	Columns []Column
	Rows    []map[string]any
	Summary []string
}

// Export is a rendered download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service renders portal datasets into downloadable files.
type Service struct {
	ledger        *ledger.Service
	verifications *verification.Service
	logger        *zap.Logger
}

// NewService creates an export service.
func NewService(ledgerSvc *ledger.Service, verificationSvc *verification.Service, logger *zap.Logger) *Service {
	return &Service{
		ledger:        ledgerSvc,
		verifications: verificationSvc,
		logger:        logger,
	}
}

// Export renders one dataset in one format.
func (s *Service) Export(ctx context.Context, dataset Dataset, format Format) (*Export, error) {
	table, err := s.buildTable(ctx, dataset)
	if err != nil {
		return nil, err
	}

	var (
		buf         bytes.Buffer
		contentType string
	)
	switch format {
	case FormatCSV:
		err = writeCSV(&buf, table)
		contentType = "text/csv"
	case FormatExcel:
		err = writeExcel(&buf, table)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		err = writePDF(&buf, table)
		contentType = "application/pdf"
	default:
		return nil, ErrUnknownFormat
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s as %s: %w", dataset, format, err)
	}

	s.logger.Info("export rendered",
		zap.String("dataset", string(dataset)),
		zap.String("format", string(format)),
		zap.Int("rows", len(table.Rows)),
		zap.Int("bytes", buf.Len()))

	return &Export{
		Filename:    fmt.Sprintf("%s-%s.%s", dataset, time.Now().UTC().Format("2006-01-02"), format),
		ContentType: contentType,
		Data:        buf.Bytes(),
	}, nil
}

func (s *Service) buildTable(ctx context.Context, dataset Dataset) (Table, error) {
	switch dataset {
	case DatasetLeaderboard:
		return s.leaderboardTable(ctx)
	case DatasetVerifications:
		return s.verificationsTable(ctx)
	default:
		return Table{}, ErrUnknownDataset
	}
}

func (s *Service) leaderboardTable(ctx context.Context) (Table, error) {
	standings, err := s.ledger.Standings(ctx, 0)
	if err != nil {
		return Table{}, fmt.Errorf("failed to load standings: %w", err)
	}

	rows := make([]map[string]any, 0, len(standings))
	var totalPoints, totalCO2 int
	for _, st := range standings {
		totalPoints += st.Points
		totalCO2 += st.CO2
		rows = append(rows, map[string]any{
			"rank":   st.Rank,
			"name":   st.Name,
			"points": st.Points,
			"co2":    st.CO2,
		})
	}

	return Table{
		Title: "Community Leaderboard",
		Columns: []Column{
			{Key: "rank", Label: "Rank"},
			{Key: "name", Label: "Name"},
			{Key: "points", Label: "Points"},
			{Key: "co2", Label: "CO2 Saved (kg)"},
		},
		Rows: rows,
		Summary: []string{
			fmt.Sprintf("Participants: %d", len(standings)),
			fmt.Sprintf("Total points: %d", totalPoints),
			fmt.Sprintf("Total CO2 saved: %d kg", totalCO2),
		},
	}, nil
}

func (s *Service) verificationsTable(ctx context.Context) (Table, error) {
	items, err := s.verifications.List(ctx, verification.Filter{})
	if err != nil {
		return Table{}, fmt.Errorf("failed to load verifications: %w", err)
	}

	rows := make([]map[string]any, 0, len(items))
	var accepted, pending int
	for _, v := range items {
		switch v.Status {
		case verification.StatusAccepted:
			accepted++
		case verification.StatusPending:
			pending++
		}
		rows = append(rows, map[string]any{
			"id":        v.ID,
			"user":      v.User,
			"action":    v.Action,
			"status":    string(v.Status),
			"filename":  v.File.Filename,
			"size":      v.File.Size,
			"timestamp": v.Timestamp,
		})
	}

	return Table{
		Title: "Verification Log",
		Columns: []Column{
			{Key: "id", Label: "ID"},
			{Key: "user", Label: "User"},
			{Key: "action", Label: "Action"},
			{Key: "status", Label: "Status"},
			{Key: "filename", Label: "Filename"},
			{Key: "size", Label: "Size (bytes)"},
			{Key: "timestamp", Label: "Submitted"},
		},
		Rows: rows,
		Summary: []string{
			fmt.Sprintf("Total submissions: %d", len(items)),
			fmt.Sprintf("Accepted: %d", accepted),
			fmt.Sprintf("Pending: %d", pending),
		},
	}, nil
}

func formatValue(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", n)
	}
}
