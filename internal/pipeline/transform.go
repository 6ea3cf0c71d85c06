package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/cruise-data-etl/internal/domain"
	"github.com/go-gota/gota/dataframe"
)

// CruiseTransformer implements Transformer using the domain standardization
// stages in order: join, dates, names, variable values.
type CruiseTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a CruiseTransformer.
func NewTransformer(logger *slog.Logger) *CruiseTransformer {
	return &CruiseTransformer{logger: logger}
}

type step struct {
	name string
	fn   func(dataframe.DataFrame) (dataframe.DataFrame, error)
}

var standardizeSteps = []step{
	{"standardize dates", domain.StandardizeDates},
	{"standardize names", domain.StandardizeNames},
	{"standardize variable", domain.StandardizeVariable},
}

func (t *CruiseTransformer) Transform(ctx context.Context, ds domain.Dataset) (dataframe.DataFrame, error) {
	start := time.Now()
	df, err := domain.Join(ds.Travels, ds.Measurements)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	t.logger.Debug("tables joined", "rows", df.Nrow(), "duration", time.Since(start))

	for _, s := range standardizeSteps {
		if err := ctx.Err(); err != nil {
			return dataframe.DataFrame{}, err
		}
		start = time.Now()
		if df, err = s.fn(df); err != nil {
			return dataframe.DataFrame{}, err
		}
		t.logger.Debug("step done", "step", s.name, "columns", df.Ncol(), "duration", time.Since(start))
	}
	return df, nil
}
