package reporting

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type outputFile struct {
	name    string
	content string
}

// WriteFiles writes the CSV tables and report.md into dir, creating it if
// needed. Sensitivity CSVs are written only when the report carries a
// sensitivity result; otherwise any left in dir by an earlier run are
// removed. Returns the written paths in write order.
func WriteFiles(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	files := []outputFile{
		{FileScenarioResults, RenderScenarioResultsCSV(r.Scenarios)},
		{FileDecisionMatrix, RenderDecisionMatrixCSV(r.Decisions)},
		{FileValuationSummary, RenderValuationSummaryCSV(r.Valuations)},
		{FileValuationCashflows, RenderValuationCashflowsCSV(r.Valuations)},
	}
	if r.Sensitivity != nil {
		files = append(files,
			outputFile{FileBreakEven, RenderBreakEvenCSV(r.Sensitivity.BreakEven)},
			outputFile{FileTornado, RenderTornadoCSV(r.Sensitivity.Tornado)},
		)
	} else {
		for _, name := range []string{FileBreakEven, FileTornado} {
			err := os.Remove(filepath.Join(dir, name))
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("remove stale %s: %w", name, err)
			}
		}
	}
	files = append(files, outputFile{FileReport, RenderMarkdown(r)})

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
