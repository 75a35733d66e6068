// Package importer bulk-loads the CSV fixtures shipped with the project
// into the database.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/storage"
)

var ErrMissingColumn = errors.New("missing column")

// Loader writes all batches atomically.
type Loader interface {
	BulkLoad(ctx context.Context, batches []storage.Batch) (map[string]int64, error)
}

type parseFunc func(string) (any, error)

type column struct {
	// names are the accepted CSV headers, first match wins.
	names []string
	db    string
	parse parseFunc
	// fallback is used when the column is absent.
	fallback any
	// optional columns may be absent even without a fallback, loading NULL.
	optional bool
}

type Table struct {
	File    string
	Name    string
	Serial  bool
	columns []column
}

func (t Table) Columns() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.db
	}
	return out
}

// Tables lists the fixture files in load order: every file only references
// rows from files before it.
var Tables = []Table{
	{File: "users.csv", Name: "users", Serial: true, columns: []column{
		{names: []string{"id"}, db: "id", parse: parseID},
		{names: []string{"username"}, db: "username", parse: parseText},
		{names: []string{"email"}, db: "email", parse: parseText},
		{names: []string{"role"}, db: "role", parse: parseRole, fallback: string(models.RoleUser)},
		{names: []string{"bio"}, db: "bio", parse: parseText, fallback: ""},
	}},
	{File: "category.csv", Name: "categories", Serial: true, columns: slugColumns},
	{File: "genre.csv", Name: "genres", Serial: true, columns: slugColumns},
	{File: "titles.csv", Name: "titles", Serial: true, columns: []column{
		{names: []string{"id"}, db: "id", parse: parseID},
		{names: []string{"name"}, db: "name", parse: parseText},
		{names: []string{"year"}, db: "year", parse: parseYear},
		{names: []string{"description"}, db: "description", parse: parseText, fallback: ""},
		{names: []string{"category", "category_id"}, db: "category_id", parse: parseOptionalID, optional: true},
	}},
	{File: "genre_title.csv", Name: "titles_genres", columns: []column{
		{names: []string{"title_id", "title"}, db: "title_id", parse: parseID},
		{names: []string{"genre_id", "genre"}, db: "genre_id", parse: parseID},
	}},
	{File: "review.csv", Name: "reviews", Serial: true, columns: []column{
		{names: []string{"id"}, db: "id", parse: parseID},
		{names: []string{"title_id", "title"}, db: "title_id", parse: parseID},
		{names: []string{"text"}, db: "text", parse: parseText},
		{names: []string{"author", "author_id"}, db: "author_id", parse: parseID},
		{names: []string{"score"}, db: "score", parse: parseScore},
		{names: []string{"pub_date"}, db: "pub_date", parse: parseTime},
	}},
	{File: "comments.csv", Name: "comments", Serial: true, columns: []column{
		{names: []string{"id"}, db: "id", parse: parseID},
		{names: []string{"review_id", "review"}, db: "review_id", parse: parseID},
		{names: []string{"text"}, db: "text", parse: parseText},
		{names: []string{"author", "author_id"}, db: "author_id", parse: parseID},
		{names: []string{"pub_date"}, db: "pub_date", parse: parseTime},
	}},
}

var slugColumns = []column{
	{names: []string{"id"}, db: "id", parse: parseID},
	{names: []string{"name"}, db: "name", parse: parseText},
	{names: []string{"slug"}, db: "slug", parse: parseText},
}

type Importer struct {
	log    *slog.Logger
	loader Loader
}

func New(log *slog.Logger, loader Loader) *Importer {
	return &Importer{log: log, loader: loader}
}

// Run parses every fixture under dir and loads them in one go.
func (i *Importer) Run(ctx context.Context, dir fs.FS) (map[string]int64, error) {
	const op = "importer.Run"
	log := i.log.With("op", op)

	batches := make([]storage.Batch, 0, len(Tables))
	for _, t := range Tables {
		rows, err := parseFile(dir, t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Debug("parsed fixture", "file", t.File, "rows", len(rows))
		batches = append(batches, storage.Batch{Table: t.Name, Columns: t.Columns(), Rows: rows, Serial: t.Serial})
	}
	loaded, err := i.loader.BulkLoad(ctx, batches)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, t := range Tables {
		log.Info("table loaded", "table", t.Name, "rows", loaded[t.Name])
	}
	return loaded, nil
}

func parseFile(dir fs.FS, t Table) ([][]any, error) {
	f, err := dir.Open(t.File)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := Parse(f, t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.File, err)
	}
	return rows, nil
}

// Parse reads a CSV with a header line into rows ordered like t.Columns().
func Parse(r io.Reader, t Table) ([][]any, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	positions := make([]int, len(t.columns))
	for i, c := range t.columns {
		positions[i] = -1
		for _, name := range c.names {
			if pos, ok := index[name]; ok {
				positions[i] = pos
				break
			}
		}
		if positions[i] == -1 && c.fallback == nil && !c.optional {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, c.names[0])
		}
	}

	var rows [][]any
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		row := make([]any, len(t.columns))
		for i, c := range t.columns {
			if positions[i] == -1 {
				row[i] = c.fallback
				continue
			}
			v, err := c.parse(record[positions[i]])
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, c.names[0], err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseText(s string) (any, error) {
	return s, nil
}

func parseID(s string) (any, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, err
	}
	if id < 1 {
		return nil, fmt.Errorf("id must be positive, got %d", id)
	}
	return id, nil
}

func parseOptionalID(s string) (any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return parseID(s)
}

func parseYear(s string) (any, error) {
	year, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return nil, err
	}
	return int32(year), nil
}

func parseScore(s string) (any, error) {
	score, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return int32(score), nil
}

func parseRole(s string) (any, error) {
	role := models.Role(strings.TrimSpace(s))
	if role == "" {
		return string(models.RoleUser), nil
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return string(role), nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999-07:00", "2006-01-02 15:04:05"}

func parseTime(s string) (any, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, fmt.Errorf("invalid timestamp %q", s)
}
