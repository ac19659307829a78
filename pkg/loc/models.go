package loc

// Response represents one page of a LOC JSON API query
type Response struct {
	Results    []Result   `json:"results"`
	Pagination Pagination `json:"pagination"`

	// Raw is the JSON body the page was decoded from
	Raw []byte `json:"-"`
}

// Pagination contains the server's paging metadata
type Pagination struct {
	// Next is the URL of the next page, or null on the last page
	Next    *string `json:"next"`
	Current int     `json:"current"`
	Total   int     `json:"total"`
	PerPage int     `json:"perpage"`
	// Of is the total result count across all pages
	Of int `json:"of"`
}

// Result represents a single item in a page's result list
type Result struct {
	ID             string   `json:"id"`
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	OriginalFormat []string `json:"original_format"`
	ImageURL       []string `json:"image_url"`
	Item           Item     `json:"item"`
}

// Item holds the nested item metadata the crawler cares about
type Item struct {
	SourceCollection string `json:"source_collection"`
}

// BestImageURL returns the highest quality image URL of a result, or "" if
// the result carries no image.
//
// The API orders image_url from smallest to largest rendition; the item page
// itself often links an even larger TIF, but those run to 100MB apiece and
// the last image_url entry is plenty.
func (r *Result) BestImageURL() string {
	if len(r.ImageURL) == 0 {
		return ""
	}
	return r.ImageURL[len(r.ImageURL)-1]
}

// HasNextPage reports whether the server supplied a next-page cursor
func (p *Pagination) HasNextPage() bool {
	return p.Next != nil && *p.Next != ""
}
