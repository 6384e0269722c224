package app

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

// saveReport persists the report of the last build of the project at root.
func saveReport(root string, report *domain.BuildReport) error {
	path := domain.ReportPath(root)
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrReportWriteFailed.Error())
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrReportWriteFailed.Error()), "path", path)
	}
	if err := os.WriteFile(path, data, domain.PrivateFilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrReportWriteFailed.Error()), "path", path)
	}
	return nil
}

// LastReport loads the report of the last build of the project at root.
func LastReport(root string) (*domain.BuildReport, error) {
	path := domain.ReportPath(root)
	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from the project root
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrReportNotFound
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read build report"), "path", path)
	}
	var report domain.BuildReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse build report"), "path", path)
	}
	return &report, nil
}
