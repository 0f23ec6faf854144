package checks

import (
	"unicode/utf8"

	"github.com/balticscan/domain-analyzer/internal/model"
)

// Title and description length bands search engines display without
// truncation.
const (
	titleMin       = 10
	titleMax       = 60
	descriptionMin = 50
	descriptionMax = 160
)

// SEOSignals derives the basic on-page SEO findings from fetched
// content.
func SEOSignals(content *model.ContentData) *model.SEOData {
	data := &model.SEOData{
		TitleLength:       utf8.RuneCountInString(content.Title),
		DescriptionLength: utf8.RuneCountInString(content.MetaDescription),
		HasCanonical:      content.Canonical != "",
		HasH1:             content.H1Count > 0,
	}

	switch {
	case data.TitleLength == 0:
		data.Issues = append(data.Issues, "missing title")
	case data.TitleLength < titleMin:
		data.Issues = append(data.Issues, "title too short")
	case data.TitleLength > titleMax:
		data.Issues = append(data.Issues, "title too long")
	}

	switch {
	case data.DescriptionLength == 0:
		data.Issues = append(data.Issues, "missing meta description")
	case data.DescriptionLength < descriptionMin:
		data.Issues = append(data.Issues, "meta description too short")
	case data.DescriptionLength > descriptionMax:
		data.Issues = append(data.Issues, "meta description too long")
	}

	if !data.HasCanonical {
		data.Issues = append(data.Issues, "missing canonical link")
	}
	switch {
	case content.H1Count == 0:
		data.Issues = append(data.Issues, "no h1 heading")
	case content.H1Count > 1:
		data.Issues = append(data.Issues, "multiple h1 headings")
	}

	return data
}
