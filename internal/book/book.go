package book

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"

	"catalogue/internal/author"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrDuplicateISBN is returned when the store already holds the ISBN.
	ErrDuplicateISBN = errors.New("isbn already exists")
)

// Book represents a book entity. Authors is the full association set, sorted
// by name.
type Book struct {
	ID              string
	ISBN            string
	Title           string
	Authors         []author.Author
	PublicationDate Date
	Summary         string
	PageCount       int
}

// AuthorIDs returns the ids of b's authors.
func (b Book) AuthorIDs() []string {
	ids := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		ids = append(ids, a.ID)
	}
	return ids
}

// AuthorNames returns the names of b's authors, never nil.
func (b Book) AuthorNames() []string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		names = append(names, a.Name)
	}
	return names
}

func sortAuthors(authors []author.Author) {
	sort.Slice(authors, func(i, j int) bool {
		ki, kj := author.NameKey(authors[i].Name), author.NameKey(authors[j].Name)
		if ki != kj {
			return ki < kj
		}
		return authors[i].Name < authors[j].Name
	})
}

// Input is the payload of book creation and update. Update identifies the
// book by ISBN and replaces every other field.
type Input struct {
	ISBN            string   `json:"isbn" label:"ISBN" validate:"notblank,isbn"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	PublicationDate Date     `json:"publicationDate"`
	Summary         string   `json:"summary"`
	PageCount       int      `json:"pageCount"`
}

const dateLayout = "2006-01-02"

// Date is a calendar day. The zero value means the date is unknown and is
// encoded as JSON null.
type Date struct {
	time.Time
}

// NewDate returns the date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("publication date %q: want YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		*d = Date{}
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("publication date %s: want a YYYY-MM-DD string", b)
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
