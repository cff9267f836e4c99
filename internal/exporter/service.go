package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"aadhaarpulse/internal/anomaly"
	"aadhaarpulse/internal/dataset"
	apperrors "aadhaarpulse/internal/errors"
)

// Generated files stay downloadable for this long; History reports the
// expiry so clients do not cache stale links.
const downloadTTL = 24 * time.Hour

// exportWindowMonths covers the full retained history of either series
const exportWindowMonths = 120

// DataType selects which dataset an export covers
type DataType string

const (
	DataEnrolments DataType = "enrolments"
	DataUpdates    DataType = "updates"
	DataStates     DataType = "states"
	DataAnomalies  DataType = "anomalies"
)

// Valid reports whether the data type names an exportable dataset
func (d DataType) Valid() bool {
	switch d {
	case DataEnrolments, DataUpdates, DataStates, DataAnomalies:
		return true
	}
	return false
}

// Receipt describes one generated export
type Receipt struct {
	Status       string    `json:"status"`
	ExportID     string    `json:"export_id"`
	DataType     DataType  `json:"data_type"`
	Format       string    `json:"format"`
	RecordsCount int       `json:"records_count"`
	DownloadURL  string    `json:"download_url"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// DataProvider is the slice of the data repository the service exports
type DataProvider interface {
	GetEnrolmentTimeseries(months int) []dataset.TimePoint
	GetUpdateTimeseries(months int) []dataset.TimePoint
	GetStateData() []dataset.StateRecord
}

// AnomalyProvider supplies the anomaly feed for anomaly exports
type AnomalyProvider interface {
	DetectAll() []anomaly.Anomaly
}

// Service generates export files and tracks their history
type Service struct {
	repo      DataProvider
	anomalies AnomalyProvider
	csv       *CSVWriter
	dir       string
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	counter int
	history []Receipt

	generated metric.Int64Counter
}

// NewService creates an export service writing into dir
func NewService(repo DataProvider, anomalies AnomalyProvider, dir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		anomalies: anomalies,
		csv:       NewCSVWriter(dir),
		dir:       dir,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *Service) nextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return fmt.Sprintf("EXP-%d-%06d", s.now().Year(), s.counter)
}

// SetInstruments attaches the generated-exports counter. A nil counter
// disables recording.
func (s *Service) SetInstruments(generated metric.Int64Counter) {
	s.generated = generated
}

func (s *Service) record(receipt Receipt) {
	s.mu.Lock()
	s.history = append(s.history, receipt)
	s.mu.Unlock()

	if s.generated != nil {
		s.generated.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("data_type", string(receipt.DataType)),
			attribute.String("format", receipt.Format),
		))
	}
}

// ExportCSV writes the named dataset to a CSV file and returns its receipt
func (s *Service) ExportCSV(dataType DataType) (Receipt, error) {
	if !dataType.Valid() {
		return Receipt{}, apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("unknown export data type %q", dataType), nil)
	}

	headers, records := s.tabulate(dataType)

	exportID := s.nextID()
	fileName := exportID + ".csv"
	if err := s.csv.WriteSimpleCSV(fileName, headers, records); err != nil {
		return Receipt{}, apperrors.NewExportError("failed to write CSV export", err).
			WithContext("data_type", string(dataType))
	}

	receipt := s.receipt(exportID, dataType, "csv", fileName, len(records))
	s.record(receipt)
	s.logger.Info("export generated",
		"export_id", exportID,
		"data_type", string(dataType),
		"format", "csv",
		"records", len(records))
	return receipt, nil
}

// ExportExcel writes a multi-sheet workbook covering the enrolment, update
// and state datasets and returns its receipt
func (s *Service) ExportExcel(dataType DataType) (Receipt, error) {
	if !dataType.Valid() {
		return Receipt{}, apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("unknown export data type %q", dataType), nil)
	}

	exportID := s.nextID()
	fileName := exportID + ".xlsx"

	f := excelize.NewFile()
	defer f.Close()

	headers, records := s.tabulate(dataType)
	sheet := sheetName(dataType)
	f.SetSheetName("Sheet1", sheet)
	if err := writeSheet(f, sheet, headers, records); err != nil {
		return Receipt{}, apperrors.NewExportError("failed to build workbook", err).
			WithContext("data_type", string(dataType))
	}

	// supporting sheets give the workbook dashboard context
	for _, extra := range []DataType{DataEnrolments, DataUpdates, DataStates} {
		if extra == dataType {
			continue
		}
		extraHeaders, extraRecords := s.tabulate(extra)
		name := sheetName(extra)
		if _, err := f.NewSheet(name); err != nil {
			return Receipt{}, apperrors.NewExportError("failed to add sheet", err).
				WithContext("sheet", name)
		}
		if err := writeSheet(f, name, extraHeaders, extraRecords); err != nil {
			return Receipt{}, apperrors.NewExportError("failed to build workbook", err).
				WithContext("sheet", name)
		}
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return Receipt{}, apperrors.NewExportError("failed to create export directory", err)
	}
	if err := f.SaveAs(filepath.Join(s.dir, fileName)); err != nil {
		return Receipt{}, apperrors.NewExportError("failed to save workbook", err)
	}

	receipt := s.receipt(exportID, dataType, "xlsx", fileName, len(records))
	s.record(receipt)
	s.logger.Info("export generated",
		"export_id", exportID,
		"data_type", string(dataType),
		"format", "xlsx",
		"records", len(records))
	return receipt, nil
}

func (s *Service) receipt(exportID string, dataType DataType, format, fileName string, count int) Receipt {
	now := s.now()
	return Receipt{
		Status:       "success",
		ExportID:     exportID,
		DataType:     dataType,
		Format:       format,
		RecordsCount: count,
		DownloadURL:  "/api/v1/exports/download/" + fileName,
		CreatedAt:    now,
		ExpiresAt:    now.Add(downloadTTL),
	}
}

// tabulate flattens the named dataset into headers and string records
func (s *Service) tabulate(dataType DataType) ([]string, [][]string) {
	switch dataType {
	case DataUpdates:
		points := s.repo.GetUpdateTimeseries(exportWindowMonths)
		records := make([][]string, 0, len(points))
		for _, p := range points {
			records = append(records, []string{p.Period(), formatInt(p.Value)})
		}
		return []string{"Period", "Updates"}, records

	case DataStates:
		states := s.repo.GetStateData()
		records := make([][]string, 0, len(states))
		for _, st := range states {
			records = append(records, []string{
				st.Name,
				st.Code,
				string(st.Region),
				formatInt(st.TotalEnrolments),
				formatInt(st.MonthlyEnrolments),
				formatFloat(st.YoYGrowth),
				formatFloat(st.UpdateRate),
				formatFloat(st.UrbanPct),
			})
		}
		return []string{"State", "Code", "Region", "Total Enrolments", "Monthly Enrolments", "YoY Growth", "Update Rate", "Urban Pct"}, records

	case DataAnomalies:
		anomalies := s.anomalies.DetectAll()
		records := make([][]string, 0, len(anomalies))
		for _, a := range anomalies {
			records = append(records, []string{
				a.ID,
				string(a.Type),
				string(a.Severity),
				a.State,
				a.District,
				a.Description,
				formatFloat(a.DeviationScore),
				a.DetectedAt.Format(time.RFC3339),
			})
		}
		return []string{"ID", "Type", "Severity", "State", "District", "Description", "Deviation", "Detected At"}, records

	default:
		points := s.repo.GetEnrolmentTimeseries(exportWindowMonths)
		records := make([][]string, 0, len(points))
		for _, p := range points {
			records = append(records, []string{
				p.Period(),
				formatInt(p.Value),
				formatInt(p.Cumulative),
				formatFloat(p.YoYGrowth),
			})
		}
		return []string{"Period", "Enrolments", "Cumulative", "YoY Growth"}, records
	}
}

func sheetName(dataType DataType) string {
	switch dataType {
	case DataUpdates:
		return "Updates"
	case DataStates:
		return "States"
	case DataAnomalies:
		return "Anomalies"
	default:
		return "Enrolments"
	}
}

// writeSheet fills one worksheet with a header row and records
func writeSheet(f *excelize.File, sheet string, headers []string, records [][]string) error {
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for row, record := range records {
		for col, value := range record {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// History returns the most recent exports, newest first
func (s *Service) History(limit int) []Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Receipt, len(s.history))
	copy(out, s.history)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FilePath resolves a download file name inside the export directory. The
// name is stripped to its base so clients cannot traverse out of it.
func (s *Service) FilePath(name string) (string, error) {
	clean := filepath.Base(name)
	full := filepath.Join(s.dir, clean)
	if _, err := os.Stat(full); err != nil {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("export file %q not found", clean), err)
	}
	return full, nil
}
