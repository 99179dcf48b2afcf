package model

// ClassificationResult is the outcome of matching a document against the
// rule set. The zero value means unmatched.
type ClassificationResult struct {
	Category    string
	Subcategory string
	Segments    []string
}

// Matched reports whether any rule claimed the document.
func (r ClassificationResult) Matched() bool {
	return r.Category != ""
}

// Label returns the name appended to a relocated file: the subcategory when
// one matched, otherwise the category.
func (r ClassificationResult) Label() string {
	if r.Subcategory != "" {
		return r.Subcategory
	}
	return r.Category
}
