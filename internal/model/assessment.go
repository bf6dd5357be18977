package model

import "maps"

// Page identifies a wizard page. Each page owns one group of the record.
type Page string

const (
	PageCompanyInfo Page = "companyInfo"
	PageCapital     Page = "capital"
	PageAdvantage   Page = "advantage"
	PageMarket      Page = "market"
	PagePeople      Page = "people"
)

// Pages lists the wizard pages in navigation (and validation) order.
var Pages = []Page{PageCompanyInfo, PageCapital, PageAdvantage, PageMarket, PagePeople}

// ParsePage resolves a page name. Matching is exact.
func ParsePage(s string) (Page, bool) {
	for _, p := range Pages {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// Index returns the page position in Pages, or -1.
func (p Page) Index() int {
	for i, q := range Pages {
		if q == p {
			return i
		}
	}
	return -1
}

// Group holds the answers of one page keyed by field name. Values are
// scalars as decoded from JSON: float64, string, bool or nil.
type Group map[string]any

// Clone returns a shallow copy of the group. A nil group clones to nil.
func (g Group) Clone() Group {
	if g == nil {
		return nil
	}
	return maps.Clone(g)
}

// AssessmentRecord is the wizard's collected answers, one group per page.
// Any group may be nil when the page has not been visited yet.
type AssessmentRecord struct {
	CompanyInfo Group `json:"companyInfo,omitempty"`
	Capital     Group `json:"capital,omitempty"`
	Advantage   Group `json:"advantage,omitempty"`
	Market      Group `json:"market,omitempty"`
	People      Group `json:"people,omitempty"`
}

// Group returns the group backing the given page.
func (r AssessmentRecord) Group(p Page) Group {
	switch p {
	case PageCompanyInfo:
		return r.CompanyInfo
	case PageCapital:
		return r.Capital
	case PageAdvantage:
		return r.Advantage
	case PageMarket:
		return r.Market
	case PagePeople:
		return r.People
	default:
		return nil
	}
}

// SetGroup replaces the group backing the given page.
func (r *AssessmentRecord) SetGroup(p Page, g Group) {
	switch p {
	case PageCompanyInfo:
		r.CompanyInfo = g
	case PageCapital:
		r.Capital = g
	case PageAdvantage:
		r.Advantage = g
	case PageMarket:
		r.Market = g
	case PagePeople:
		r.People = g
	}
}

// Clone returns a copy of the record whose groups can be mutated without
// affecting the original.
func (r AssessmentRecord) Clone() AssessmentRecord {
	return AssessmentRecord{
		CompanyInfo: r.CompanyInfo.Clone(),
		Capital:     r.Capital.Clone(),
		Advantage:   r.Advantage.Clone(),
		Market:      r.Market.Clone(),
		People:      r.People.Clone(),
	}
}

// CompanyName returns the companyInfo.companyName answer, if it is a string.
func (r AssessmentRecord) CompanyName() string {
	if s, ok := r.CompanyInfo["companyName"].(string); ok {
		return s
	}
	return ""
}
