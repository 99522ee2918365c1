package entity

// PageContext is the url/title pair of the live page. The zero value means
// there is no usable session.
type PageContext struct {
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

func (c PageContext) IsZero() bool {
	return c.URL == "" && c.Title == ""
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}
