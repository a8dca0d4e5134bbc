// Package search finds text across every sheet of every workbook in a folder.
package search

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetmerge/internal/scan"
	"github.com/klytics/sheetmerge/internal/workbook"
)

// DefaultContextCells are read from each matching sheet for context.
var DefaultContextCells = []string{"H3", "H4", "H5", "H17"}

// Hit is one matching cell.
type Hit struct {
	File    string   `json:"file"`
	Sheet   string   `json:"sheet"`
	Text    string   `json:"text"`
	Term    string   `json:"term"`
	Row     int      `json:"row"`
	Column  int      `json:"column"`
	Cell    string   `json:"cell"`
	Context []string `json:"context"`
}

// Unreadable is a file that could not be searched.
type Unreadable struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Result holds every hit, in file, sheet, row, column order.
type Result struct {
	Terms         []string     `json:"terms"`
	ContextCells  []string     `json:"contextCells"`
	FilesSearched int          `json:"filesSearched"`
	Hits          []Hit        `json:"hits"`
	Unreadable    []Unreadable `json:"unreadable,omitempty"`
}

// Tracker is told about each file as the search reaches it.
// *progress.Tracker implements it.
type Tracker interface {
	StartFile(index, total int, name string)
	Fail(name string, err error)
}

// ErrorMessages lists the unreadable files as "name: error".
func (r *Result) ErrorMessages() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, u := range r.Unreadable {
		out = append(out, fmt.Sprintf("%s: %s", filepath.Base(u.File), u.Error))
	}
	return out
}

// Options configures Run.
type Options struct {
	ContextCells []string // defaults to DefaultContextCells
	Scan         scan.Options
	Logger       *slog.Logger
	Progress     Tracker // optional
}

// ParseTerms splits a comma-separated query into lower-cased terms.
func ParseTerms(query string) []string {
	var terms []string
	for _, t := range strings.Split(query, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// Run searches every workbook under root for cells containing any term,
// case-insensitively. Only text cells are searched. Files that cannot be
// opened are listed in the result and do not stop the search.
func Run(ctx context.Context, root string, terms []string, opts Options) (*Result, error) {
	if len(terms) == 0 {
		return nil, fmt.Errorf("no search terms given — pass one or more comma-separated terms")
	}
	cells := opts.ContextCells
	if len(cells) == 0 {
		cells = DefaultContextCells
	}
	for _, c := range cells {
		if _, _, err := excelize.CellNameToCoordinates(c); err != nil {
			return nil, fmt.Errorf("invalid context cell %q: %w", c, err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	found, err := scan.Scan(root, opts.Scan)
	if err != nil {
		return nil, err
	}

	res := &Result{Terms: terms, ContextCells: cells}
	for i, fi := range found.Files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		logger.Debug("searching file", "file", fi.Path)
		if opts.Progress != nil {
			opts.Progress.StartFile(i+1, len(found.Files), fi.Name)
		}
		hits, err := searchFile(fi.Path, terms, cells)
		if err != nil {
			logger.Warn("could not search file", "file", fi.Path, "error", err)
			if opts.Progress != nil {
				opts.Progress.Fail(fi.Name, err)
			}
			res.Unreadable = append(res.Unreadable, Unreadable{File: fi.Path, Error: err.Error()})
			continue
		}
		res.FilesSearched++
		res.Hits = append(res.Hits, hits...)
	}
	return res, nil
}

func searchFile(path string, terms, contextCells []string) ([]Hit, error) {
	h, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	var hits []Hit
	for _, name := range h.SheetNames() {
		sheet, err := h.Sheet(name)
		if err != nil {
			return nil, err
		}

		ctxValues := make([]string, len(contextCells))
		for i, ref := range contextCells {
			v, _ := sheet.CellByName(ref)
			ctxValues[i] = v.Text
		}

		for row := 1; row <= sheet.Height(); row++ {
			for col := 1; col <= sheet.Width(); col++ {
				v := sheet.Cell(row, col)
				if v.Kind != workbook.KindString {
					continue
				}
				term, ok := match(v.Text, terms)
				if !ok {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(col, row)
				hits = append(hits, Hit{
					File:    path,
					Sheet:   name,
					Text:    v.Text,
					Term:    term,
					Row:     row,
					Column:  col,
					Cell:    cell,
					Context: ctxValues,
				})
			}
		}
	}
	return hits, nil
}

// match returns the first term contained in text.
func match(text string, terms []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return t, true
		}
	}
	return "", false
}

// WriteCSV exports hits with an export-date line, a blank line and a header.
func WriteCSV(w io.Writer, res *Result, exportedAt time.Time) error {
	cw := csv.NewWriter(w)

	records := [][]string{
		{"Export Date (UTC):", exportedAt.UTC().Format("2006-01-02 15:04:05")},
		{},
		append([]string{"Filename", "Sheet Name", "Cell Content", "Row", "Column"}, res.ContextCells...),
	}
	for _, h := range res.Hits {
		rec := []string{h.File, h.Sheet, h.Text, strconv.Itoa(h.Row), strconv.Itoa(h.Column)}
		records = append(records, append(rec, h.Context...))
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("could not write CSV: %w", err)
	}
	return nil
}
