package extractor

import "github.com/finparse/kb-statement-converter/internal/rowsource"

// region is a fixed page sub-area in PDF points with a top-left origin, the
// same convention the statement templates were measured in.
type region struct {
	x1, y1, x2, y2 float64
}

// clip keeps only the text items inside the region.
func (r region) clip(items []textItem) []textItem {
	var clipped []textItem
	for _, it := range items {
		if it.x >= r.x1 && it.x <= r.x2 && it.y >= r.y1 && it.y <= r.y2 {
			clipped = append(clipped, it)
		}
	}
	return clipped
}

// templateRegions pins the first-page header sections and the whole-width
// last-page data area of the supported statement layout. The coordinates
// were measured once against reference statements and are part of the
// layout contract; shifting them is a layout change, not a tuning knob.
var templateRegions = map[rowsource.Template]region{
	rowsource.TemplateAccountType:   {x1: 36, y1: 88, x2: 300, y2: 176},
	rowsource.TemplateReportMeta:    {x1: 318, y1: 88, x2: 560, y2: 156},
	rowsource.TemplateTotalBalance:  {x1: 318, y1: 160, x2: 560, y2: 204},
	rowsource.TemplateAccountEntity: {x1: 36, y1: 190, x2: 300, y2: 286},
	rowsource.TemplateLastPage:      {x1: 30, y1: 60, x2: 566, y2: 800},
}
