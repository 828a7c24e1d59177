package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"salescrm/internal/domain/lead"
	"salescrm/internal/domain/user"
)

// ImportResult summarizes a spreadsheet import. Only the first few errors are kept.
type ImportResult struct {
	Imported int      `json:"imported"`
	Created  int      `json:"created"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}

func (r *ImportResult) addError(msg string) {
	r.Failed++
	if len(r.Errors) < lead.MaxReportedErrors {
		r.Errors = append(r.Errors, msg)
	}
}

// Service reads and writes lead spreadsheets.
type Service struct {
	leads Leads
	log   zerolog.Logger
}

func NewService(leads Leads, log zerolog.Logger) *Service {
	return &Service{leads: leads, log: log}
}

// Export builds a workbook of all or signed leads. Admin only.
func (s *Service) Export(ctx context.Context, actor user.Actor, kind Kind) (*excelize.File, error) {
	leads, err := s.leads.ExportLeads(ctx, actor, kind == KindSigned)
	if err != nil {
		return nil, err
	}
	loc := s.leads.Location()

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(SheetName, 1, 1, style)
	}
	_ = f.SetColWidth(SheetName, "A", "K", 18)

	for i := range leads {
		l := &leads[i]
		owner := l.OwnerName()
		if l.InPool() || owner == "" {
			owner = PoolOwner
		}
		next := ""
		if l.NextContactTime != nil {
			next = l.NextContactTime.In(loc).Format(CellLayout)
		}
		row := []any{
			l.Name,
			l.Phone,
			l.Status.Label(),
			owner,
			l.Source,
			l.CityAuto,
			l.RegionManual,
			l.ContactCount,
			next,
			l.CreatedAt.In(loc).Format(CellLayout),
			l.Extra.Note(),
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, addr, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	s.log.Info().Int64("user_id", actor.ID).Str("kind", string(kind)).Int("rows", len(leads)).Msg("leads exported")
	return f, nil
}

// Import reads the first sheet, skipping the header and rows without a
// name or phone. Each row is matched by phone: new leads take the row's
// values, existing ones only change owner. The importer's role decides the
// owner; the owner column is ignored.
func (s *Service) Import(ctx context.Context, actor user.Actor, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrInvalidWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	res := &ImportResult{Errors: []string{}}
	for i, cells := range rows {
		if i == 0 {
			continue
		}
		line := i + 1
		if cell(cells, colName) == "" || cell(cells, colPhone) == "" {
			continue
		}

		// the remaining cells only matter for a new phone
		build := func() (lead.LeadInput, error) {
			row, err := rowFromCells(cells)
			if err != nil {
				return lead.LeadInput{}, &cellError{err: err}
			}
			in, err := s.leads.RowInput(row)
			if err != nil {
				return lead.LeadInput{}, &cellError{err: err}
			}
			return in, nil
		}

		_, created, err := s.leads.GetOrCreateByPhone(ctx, actor, cell(cells, colPhone), build)
		if err != nil {
			if !isRowError(err) {
				s.log.Error().Err(err).Int("row", line).Msg("import row failed")
			}
			res.addError(fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		res.Imported++
		if created {
			res.Created++
		}
	}

	s.log.Info().
		Int64("user_id", actor.ID).
		Int("imported", res.Imported).
		Int("created", res.Created).
		Int("failed", res.Failed).
		Msg("leads imported")
	return res, nil
}

// cellError is a row whose cells could not be read.
type cellError struct{ err error }

func (e *cellError) Error() string { return e.err.Error() }

func (e *cellError) Unwrap() error { return e.err }

func isRowError(err error) bool {
	var (
		verr *lead.ValidationError
		cerr *cellError
	)
	return errors.As(err, &verr) || errors.As(err, &cerr) || errors.Is(err, lead.ErrPhoneExists)
}
