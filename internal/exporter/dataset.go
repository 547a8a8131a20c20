package exporter

import (
	"strings"
	"time"

	"leetlens/pkg/contracts/domain"
)

// datasetHeaders is the column order of the unified dataset CSV export.
var datasetHeaders = []string{
	"title", "title_slug", "difficulty", "frequency",
	"acceptance_rate", "acceptance_rate_imputed", "imputation_method",
	"link", "topics", "company", "timeframe",
	"company_class", "timeframe_class", "age_bucket",
	"likes", "dislikes", "source_file", "last_updated",
}

// ExportDataset streams the unified dataset to one CSV file.
func (w *CSVWriter) ExportDataset(name string, ds *domain.UnifiedDataset) error {
	stream, err := w.CreateStreamWriter(name, datasetHeaders)
	if err != nil {
		return err
	}
	for i := range ds.Records {
		if err := stream.WriteRecord(datasetRow(&ds.Records[i])); err != nil {
			stream.Close()
			return err
		}
	}
	return stream.Close()
}

func datasetRow(r *domain.ProblemRecord) []string {
	return []string{
		r.Title,
		r.TitleSlug,
		string(r.Difficulty),
		formatFloat(r.Frequency),
		formatRate(r.AcceptanceRate),
		formatBool(r.AcceptanceRateImputed),
		string(r.ImputationMethod),
		r.Link,
		strings.Join(r.Topics, ";"),
		r.Company,
		string(r.Timeframe),
		r.CompanyClass,
		r.TimeframeClass,
		r.AgeBucket,
		formatRate(r.Likes),
		formatRate(r.Dislikes),
		r.SourceFile,
		formatTime(r.LastUpdated),
	}
}

// ExportTopics streams the exploded-topics view to one CSV file.
func (w *CSVWriter) ExportTopics(name string, rows []domain.TopicRow) error {
	stream, err := w.CreateStreamWriter(name,
		[]string{"title", "title_slug", "company", "timeframe", "topic", "frequency"})
	if err != nil {
		return err
	}
	for i := range rows {
		record := []string{
			rows[i].Title, rows[i].TitleSlug, rows[i].Company,
			string(rows[i].Timeframe), rows[i].Topic, formatFloat(rows[i].Frequency),
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return err
		}
	}
	return stream.Close()
}

// ExportCompanyStats writes the per-company aggregate table to one CSV file.
func (w *CSVWriter) ExportCompanyStats(name string, stats []domain.CompanyStats) error {
	headers := []string{"company", "problems", "distinct_problems", "mean_acceptance", "mean_frequency"}
	for _, d := range domain.Difficulties() {
		headers = append(headers, strings.ToLower(string(d))+"_count")
	}

	records := make([][]string, 0, len(stats))
	for i := range stats {
		row := []string{
			stats[i].Company,
			formatInt(int64(stats[i].Problems)),
			formatInt(int64(stats[i].DistinctProblems)),
			formatFloat(stats[i].MeanAcceptance),
			formatFloat(stats[i].MeanFrequency),
		}
		for _, d := range domain.Difficulties() {
			row = append(row, formatInt(int64(stats[i].DifficultyCounts[d])))
		}
		records = append(records, row)
	}
	return w.WriteCSV(name, WriteOptions{Headers: headers, Records: records, BOMPrefix: true})
}

// ExportCorrelations writes the ranked company pairs to one CSV file.
func (w *CSVWriter) ExportCorrelations(name string, set *domain.CorrelationSet) error {
	records := make([][]string, 0, len(set.TopCorrelations))
	for _, pair := range set.TopCorrelations {
		records = append(records, []string{
			pair.Company1, pair.Company2,
			formatFloat(pair.Correlation), pair.Metric, string(pair.Strength),
		})
	}
	return w.WriteCSV(name, WriteOptions{
		Headers:   []string{"company1", "company2", "correlation", "metric", "strength"},
		Records:   records,
		BOMPrefix: true,
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
