// Package views holds the console's entity screens: list tables with search,
// filter, sort and pagination, and the create/edit/delete dialogs behind them.
package views

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// DefaultPageSize is the number of rows a table shows per page.
const DefaultPageSize = 10

// Column is one table column. Less orders rows when the column is sorted; it
// defaults to a case-insensitive comparison of Value.
type Column[T any] struct {
	Key   string
	Title string
	Value func(T) string
	Less  func(a, b T) bool
}

// TableConfig describes how an entity is listed.
type TableConfig[T any] struct {
	Columns []Column[T]
	// Search returns the strings matched by the free-text search.
	Search func(T) []string
	// Category returns the value matched by the categorical filter, e.g. a status.
	Category func(T) string
	// Categories lists the filter choices shown to the user.
	Categories []string
	PageSize   int
}

// Table is a client-side view over a fully fetched list. Pages are 1-based.
type Table[T any] struct {
	cfg    TableConfig[T]
	items  []T
	search string
	filter string
	sortBy string
	desc   bool
	page   int
}

func NewTable[T any](cfg TableConfig[T]) *Table[T] {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &Table[T]{cfg: cfg, page: 1}
}

// SetItems replaces the rows, keeping search, filter and sort. The page is clamped.
func (t *Table[T]) SetItems(items []T) {
	t.items = items
	t.SetPage(t.page)
}

// SetSearch filters rows whose search fields contain q, ignoring case.
func (t *Table[T]) SetSearch(q string) {
	t.search = strings.ToLower(strings.TrimSpace(q))
	t.page = 1
}

// SetFilter keeps rows whose category equals v. An empty v shows everything.
func (t *Table[T]) SetFilter(v string) {
	t.filter = v
	t.page = 1
}

// SortBy orders rows by the column key. Sorting by the current key again flips
// the direction; a new key starts ascending. Unknown keys are ignored.
func (t *Table[T]) SortBy(key string) {
	if _, ok := t.column(key); !ok {
		return
	}
	if t.sortBy == key {
		t.desc = !t.desc
		return
	}
	t.sortBy, t.desc = key, false
}

// Sort reports the current sort key and direction.
func (t *Table[T]) Sort() (key string, desc bool) {
	return t.sortBy, t.desc
}

// SetPage moves to page n, clamped to [1, PageCount].
func (t *Table[T]) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	if last := t.PageCount(); n > last {
		n = last
	}
	t.page = n
}

func (t *Table[T]) Page() int { return t.page }

func (t *Table[T]) PageSize() int { return t.cfg.PageSize }

// PageCount is at least 1, even for an empty table.
func (t *Table[T]) PageCount() int {
	n := (t.Total() + t.cfg.PageSize - 1) / t.cfg.PageSize
	if n < 1 {
		return 1
	}
	return n
}

// Total counts rows after search and filter.
func (t *Table[T]) Total() int {
	return len(t.visible())
}

// Categories lists the filter choices.
func (t *Table[T]) Categories() []string { return t.cfg.Categories }

// Rows returns the current page.
func (t *Table[T]) Rows() []T {
	rows := t.Filtered()
	start := (t.page - 1) * t.cfg.PageSize
	if start >= len(rows) {
		return nil
	}
	end := start + t.cfg.PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// Filtered returns every matching row in sort order.
func (t *Table[T]) Filtered() []T {
	rows := t.visible()
	col, ok := t.column(t.sortBy)
	if !ok {
		return rows
	}
	less := col.Less
	if less == nil {
		less = func(a, b T) bool {
			return strings.ToLower(col.Value(a)) < strings.ToLower(col.Value(b))
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if t.desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
	return rows
}

func (t *Table[T]) visible() []T {
	out := make([]T, 0, len(t.items))
	for _, item := range t.items {
		if t.filter != "" && t.cfg.Category != nil && t.cfg.Category(item) != t.filter {
			continue
		}
		if t.search != "" && !t.matches(item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (t *Table[T]) matches(item T) bool {
	if t.cfg.Search == nil {
		return true
	}
	for _, field := range t.cfg.Search(item) {
		if strings.Contains(strings.ToLower(field), t.search) {
			return true
		}
	}
	return false
}

func (t *Table[T]) column(key string) (Column[T], bool) {
	for _, c := range t.cfg.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}

// Headers returns the column titles.
func (t *Table[T]) Headers() []string {
	out := make([]string, len(t.cfg.Columns))
	for i, c := range t.cfg.Columns {
		out[i] = c.Title
	}
	return out
}

// Cells formats rows as strings, one slice per row.
func (t *Table[T]) Cells(rows []T) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		cells := make([]string, len(t.cfg.Columns))
		for j, c := range t.cfg.Columns {
			cells[j] = c.Value(r)
		}
		out[i] = cells
	}
	return out
}

// Render writes the current page as aligned columns followed by a footer.
func (t *Table[T]) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Headers(), "\t"))
	for _, row := range t.Cells(t.Rows()) {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "page %d of %d, %d total\n", t.page, t.PageCount(), t.Total())
	return err
}
