package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"library-portal/api"
	"library-portal/config"
	"library-portal/logging"
	"library-portal/nav"
	"library-portal/session"
	"library-portal/ui"
)

// Catalogue is the YAML file the importer reads.
type Catalogue struct {
	Books []CatalogueBook `yaml:"books"`
}

type CatalogueBook struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	ISBN        string `yaml:"isbn"`
	TotalCopies int    `yaml:"totalCopies"`
	Category    string `yaml:"category"`
}

// LoadCatalogue decodes a catalogue. Unknown keys are rejected so typos do
// not silently drop fields.
func LoadCatalogue(r io.Reader) (*Catalogue, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var cat Catalogue
	if err := dec.Decode(&cat); err != nil {
		if errors.Is(err, io.EOF) {
			return &cat, nil
		}
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}
	return &cat, nil
}

// NewBook turns an entry into the add-book body. Copies default to one.
func (b CatalogueBook) NewBook() (api.NewBook, error) {
	if strings.TrimSpace(b.Title) == "" || strings.TrimSpace(b.Author) == "" {
		return api.NewBook{}, errors.New("title and author are required")
	}
	copies := b.TotalCopies
	if copies == 0 {
		copies = 1
	}
	if copies < 0 {
		return api.NewBook{}, fmt.Errorf("total copies must be positive, got %d", copies)
	}
	return api.NewBook{
		Title:       strings.TrimSpace(b.Title),
		Author:      strings.TrimSpace(b.Author),
		ISBN:        strings.TrimSpace(b.ISBN),
		TotalCopies: copies,
		Category:    strings.TrimSpace(b.Category),
	}, nil
}

type bookAdder interface {
	AddBook(ctx context.Context, book api.NewBook) (*api.Book, error)
	AllBooks(ctx context.Context) ([]api.Book, error)
}

// importCatalogue adds every entry and reports per book. It returns the
// success and error counts.
func importCatalogue(ctx context.Context, w io.Writer, lib bookAdder, cat *Catalogue) (successCount, errorCount int) {
	for _, entry := range cat.Books {
		fmt.Fprintf(w, "Importing: %s by %s... ", entry.Title, entry.Author)

		book, err := entry.NewBook()
		if err != nil {
			fmt.Fprintf(w, "ERROR - %v\n", err)
			errorCount++
			continue
		}

		added, err := lib.AddBook(ctx, book)
		if err != nil {
			fmt.Fprintf(w, "ERROR - %s\n", api.MessageOf(err, err.Error()))
			errorCount++
			continue
		}

		if added != nil && added.ID != 0 {
			fmt.Fprintf(w, "SUCCESS (ID: %d)\n", added.ID)
		} else {
			fmt.Fprintln(w, "SUCCESS")
		}
		successCount++
	}
	return successCount, errorCount
}

func listCatalogue(ctx context.Context, w io.Writer, lib bookAdder) error {
	books, err := lib.AllBooks(ctx)
	if err != nil {
		return err
	}
	tbl := ui.NewTable("ID", "Title", "Author", "Copies")
	tbl.Title = "Catalogue"
	tbl.Empty = "No books found"
	for _, b := range books {
		tbl.AddRow(b.ID, b.Title, b.Author, b.TotalCopies)
	}
	tbl.Render(w)
	return nil
}

func run(ctx context.Context, path string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, sync := logging.New("import-books", cfg.Debug, os.Stderr)
	defer sync()

	store, err := session.OpenStore(cfg.SessionPath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	sess := session.New(store, log.WithName("session"))
	if err := sess.Init(); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if !sess.HasRole(session.RoleLibrarian) {
		return errors.New("sign in as a librarian first with `librarian login`")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open catalogue: %w", err)
	}
	defer f.Close()
	cat, err := LoadCatalogue(f)
	if err != nil {
		return err
	}

	router := nav.NewRouter(nav.RouteLibrarian, log.WithName("nav"))
	router.OnNavigate(func(_, to string) {
		if to == nav.RouteLogin {
			log.Info("session rejected by the server")
			ui.Banner(out, ui.Danger, "Session expired. Run `librarian login` and try again.")
		}
	})
	client := api.NewClient(cfg.APIBaseURL, sess, router,
		api.WithTimeout(cfg.Timeout),
		api.WithLogger(log.WithName("api")),
	)
	lib := api.NewLibrarianAPI(client)

	fmt.Fprintf(out, "Importing %d books from %s...\n", len(cat.Books), path)
	successCount, errorCount := importCatalogue(ctx, out, lib, cat)

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Successfully imported: %d books\n", successCount)
	fmt.Fprintf(out, "Errors: %d\n", errorCount)

	if successCount > 0 {
		fmt.Fprintln(out, "\nImported books:")
		if err := listCatalogue(ctx, out, lib); err != nil {
			fmt.Fprintf(out, "Error retrieving books: %s\n", api.MessageOf(err, err.Error()))
		}
	}
	if errorCount > 0 {
		return fmt.Errorf("%d of %d books failed", errorCount, len(cat.Books))
	}
	return nil
}

func main() {
	cmd := &cobra.Command{
		Use:          "import_books [catalogue.yaml]",
		Short:        "Add the books of a YAML catalogue through the portal API",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "catalogue.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			return run(cmd.Context(), path, cmd.OutOrStdout())
		},
	}
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
