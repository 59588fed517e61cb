package bible

// Wire types for the upstream XML API. Kept separate from domain types so
// upstream format changes stay inside this package.

type booksResponse struct {
	Books []bookElement `xml:"book"`
}

type bookElement struct {
	Name      string `xml:"name,attr"`
	Testament string `xml:"testament,attr"`
	ID        int    `xml:"id,attr"`
	Chapters  int    `xml:"chapters,attr"`
}

type chaptersResponse struct {
	Chapters []chapterElement `xml:"chapter"`
}

type chapterElement struct {
	Number int `xml:"number,attr"`
	Verses int `xml:"verses,attr"`
}

type chapterResponse struct {
	Name      string         `xml:"name,attr"`
	Testament string         `xml:"testament,attr"`
	Book      int            `xml:"book,attr"`
	Number    int            `xml:"number,attr"`
	Verses    []verseElement `xml:"verse"`
}

type verseElement struct {
	Text   string `xml:",chardata"`
	Number int    `xml:"number,attr"`
}

type searchResponse struct {
	Verses []searchVerseElement `xml:"verse"`
}

type searchVerseElement struct {
	Text      string `xml:",chardata"`
	Name      string `xml:"name,attr"`
	Testament string `xml:"testament,attr"`
	Book      int    `xml:"book,attr"`
	Chapter   int    `xml:"chapter,attr"`
	Number    int    `xml:"number,attr"`
}
