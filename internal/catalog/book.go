package catalog

import (
	"github.com/kailas-cloud/searchlab/internal/domain/index"
	"github.com/kailas-cloud/searchlab/internal/domain/schema"
	"github.com/kailas-cloud/searchlab/internal/domain/schema/field"
)

// Book is a full-text sample document. Genres is a comma-separated list.
type Book struct {
	ID          string `json:"Id"`
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Author      string `json:"Author"`
	PageCount   int    `json:"PageCount"`
	Genres      string `json:"Genres"`
}

// BookSchema declares the book index fields.
var BookSchema = schema.MustNew("book",
	field.MustNew("Id", field.String, field.Capabilities{Key: true, Filterable: true}),
	field.MustNew("Name", field.String, field.Capabilities{Searchable: true, Filterable: true, Sortable: true}),
	field.MustNew("Description", field.String, field.Capabilities{Searchable: true}),
	field.MustNew("Author", field.String, field.Capabilities{Searchable: true, Filterable: true, Sortable: true}),
	field.MustNew("PageCount", field.Int32, field.Capabilities{Filterable: true, Sortable: true, Facetable: true}),
	field.MustNew("Genres", field.String, field.Capabilities{Searchable: true, Filterable: true, Facetable: true}),
)

// NewBook creates a book with a generated key.
func NewBook(name, description, author string, pageCount int, genres string) Book {
	return Book{
		ID:          newKey(""),
		Name:        name,
		Description: description,
		Author:      author,
		PageCount:   pageCount,
		Genres:      genres,
	}
}

// Key returns the document key.
func (b Book) Key() string { return b.ID }

// Fields returns the upload field map.
func (b Book) Fields() map[string]any {
	return map[string]any{
		"Id":          b.ID,
		"Name":        b.Name,
		"Description": b.Description,
		"Author":      b.Author,
		"PageCount":   b.PageCount,
		"Genres":      b.Genres,
	}
}

// BooksIndex builds the book index definition with a name and author suggester.
func BooksIndex(name string) (index.Definition, error) {
	return index.New(name, BookSchema, index.WithSuggester(SuggesterName, "Name", "Author"))
}

// SampleBooks returns the ten seed books.
func SampleBooks() []Book {
	return []Book{
		{
			ID:   "1",
			Name: "The Lord of the Rings: The Fellowship of the Ring",
			Description: "The first part of J.R.R. Tolkien's epic saga, following Frodo Baggins as he embarks " +
				"on a perilous journey to destroy the One Ring.",
			Author:    "J.R.R. Tolkien",
			PageCount: 423,
			Genres:    "Fantasy, Adventure, Fiction",
		},
		{
			ID:   "2",
			Name: "The Lord of the Rings: The Two Towers",
			Description: "The second installment of Tolkien's masterpiece, where the Fellowship is broken " +
				"and the quest continues across Middle-earth.",
			Author:    "J.R.R. Tolkien",
			PageCount: 352,
			Genres:    "Fantasy, Adventure, Fiction",
		},
		{
			ID:   "3",
			Name: "The Lord of the Rings: The Return of the King",
			Description: "The final volume of The Lord of the Rings, concluding the epic struggle between " +
				"the forces of good and Sauron's darkness.",
			Author:    "J.R.R. Tolkien",
			PageCount: 416,
			Genres:    "Fantasy, Adventure, Epic",
		},
		{
			ID:   "4",
			Name: "The Hobbit",
			Description: "Bilbo Baggins is swept into an unexpected adventure with dwarves to reclaim their " +
				"homeland from the dragon Smaug.",
			Author:    "J.R.R. Tolkien",
			PageCount: 310,
			Genres:    "Fantasy, Adventure, Fiction",
		},
		{
			ID:   "5",
			Name: "Dune",
			Description: "Frank Herbert's legendary science fiction novel about politics, religion, and " +
				"ecology on the desert planet Arrakis.",
			Author:    "Frank Herbert",
			PageCount: 688,
			Genres:    "Science Fiction, Adventure, Classic",
		},
		{
			ID:   "6",
			Name: "Neuromancer",
			Description: "William Gibson's cyberpunk classic that introduced the Matrix and redefined science " +
				"fiction for a digital age.",
			Author:    "William Gibson",
			PageCount: 271,
			Genres:    "Science Fiction, Cyberpunk, Thriller",
		},
		{
			ID:   "7",
			Name: "Foundation",
			Description: "Isaac Asimov's visionary tale of the fall and rebirth of a galactic empire through " +
				"the science of psychohistory.",
			Author:    "Isaac Asimov",
			PageCount: 296,
			Genres:    "Science Fiction, Classic, Space Opera",
		},
		{
			ID:          "8",
			Name:        "Ender's Game",
			Description: "A young boy is trained through battle simulations to lead humanity's defense against an alien species.",
			Author:      "Orson Scott Card",
			PageCount:   324,
			Genres:      "Science Fiction, Military, Adventure",
		},
		{
			ID:   "9",
			Name: "Ready Player One",
			Description: "In a dystopian future, Wade Watts hunts for an Easter egg inside the OASIS, a massive " +
				"virtual reality world.",
			Author:    "Ernest Cline",
			PageCount: 374,
			Genres:    "Science Fiction, Adventure, Gaming",
		},
		{
			ID:          "10",
			Name:        "The Martian",
			Description: "An astronaut stranded on Mars must use his ingenuity and engineering skills to survive until rescue.",
			Author:      "Andy Weir",
			PageCount:   369,
			Genres:      "Science Fiction, Survival, Adventure",
		},
	}
}
