package normalize

import (
	"strings"
	"time"

	"leetlens/pkg/contracts/domain"
)

// Company class tags.
const (
	CompanyClassFAANG   = "faang"
	CompanyClassBigTech = "big_tech"
	CompanyClassOther   = "other"
)

// Timeframe class tags.
const (
	TimeframeClassRecent     = "recent"
	TimeframeClassHistorical = "historical"
	TimeframeClassCumulative = "cumulative"
)

// Record age tags derived from the source file's modification time.
const (
	AgeBucketFresh  = "fresh"
	AgeBucketRecent = "recent"
	AgeBucketStale  = "stale"
)

var faangCompanies = map[string]struct{}{
	"google": {}, "alphabet": {}, "meta": {}, "facebook": {}, "amazon": {},
	"apple": {}, "netflix": {},
}

var bigTechCompanies = map[string]struct{}{
	"microsoft": {}, "uber": {}, "linkedin": {}, "airbnb": {}, "bloomberg": {},
	"oracle": {}, "adobe": {}, "salesforce": {}, "nvidia": {}, "tesla": {},
	"snap": {}, "stripe": {}, "twitter": {}, "x": {}, "lyft": {}, "paypal": {},
}

// Enrich attaches derived categorical tags to each record in place. Primary
// fields are never altered.
func Enrich(records []domain.ProblemRecord, now time.Time) {
	for i := range records {
		records[i].CompanyClass = CompanyClass(records[i].Company)
		records[i].TimeframeClass = TimeframeClass(records[i].Timeframe)
		records[i].AgeBucket = AgeBucket(records[i].LastUpdated, now)
	}
}

// CompanyClass buckets a company name into faang / big_tech / other.
func CompanyClass(company string) string {
	name := strings.ToLower(strings.TrimSpace(company))
	if _, ok := faangCompanies[name]; ok {
		return CompanyClassFAANG
	}
	if _, ok := bigTechCompanies[name]; ok {
		return CompanyClassBigTech
	}
	return CompanyClassOther
}

// TimeframeClass buckets a timeframe into recent / historical / cumulative.
func TimeframeClass(timeframe domain.Timeframe) string {
	switch timeframe {
	case domain.Timeframe30Days, domain.Timeframe3Months:
		return TimeframeClassRecent
	case domain.Timeframe6Months, domain.TimeframeOver6Months:
		return TimeframeClassHistorical
	default:
		return TimeframeClassCumulative
	}
}

// AgeBucket buckets a record's source modification time by distance from now.
func AgeBucket(modifiedAt, now time.Time) string {
	if modifiedAt.IsZero() {
		return AgeBucketStale
	}
	age := now.Sub(modifiedAt)
	switch {
	case age < 30*24*time.Hour:
		return AgeBucketFresh
	case age < 90*24*time.Hour:
		return AgeBucketRecent
	default:
		return AgeBucketStale
	}
}
