package moose

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

const (
	// PageSize is the number of moose on one gallery page
	PageSize = 12

	// Search results are capped at this many pages
	searchPages = 10
)

// ErrDuplicate is returned when inserting a moose whose name is taken.
var ErrDuplicate = errors.New("moose: name already taken")

// DupeMode decides what a bulk insert does with a name that is taken.
type DupeMode int

// The duplicate handling modes.
const (
	DupeFail DupeMode = iota
	DupeIgnore
	DupeUpdate
)

var dupeModes = map[string]DupeMode{
	"fail":   DupeFail,
	"ignore": DupeIgnore,
	"update": DupeUpdate,
}

// ParseDupeMode parses "fail", "ignore" or "update".
func ParseDupeMode(s string) (DupeMode, error) {
	if mode, ok := dupeModes[strings.ToLower(s)]; ok {
		return mode, nil
	}
	return DupeFail, fmt.Errorf("moose: unknown duplicate mode %q", s)
}

// MooseDB is the sqlite moose store. Every moose has a position starting
// from zero in the order it was added.
type MooseDB struct {
	db *sql.DB
}

// NewMooseDB opens or creates the database in file.
func NewMooseDB(file string) (*MooseDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS moose (name TEXT PRIMARY KEY NOT NULL, pos INTEGER NOT NULL, image BLOB NOT NULL, dimensions TEXT NOT NULL, created TEXT NOT NULL, author TEXT DEFAULT NULL, upvotes INTEGER NOT NULL DEFAULT 0)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE INDEX IF NOT EXISTS moose_pos ON moose (pos)"); err != nil {
		return nil, err
	}

	return &MooseDB{
		db: db,
	}, nil
}

// Close closes the database.
func (db *MooseDB) Close() error {
	return db.db.Close()
}

const (
	selectMoose = "SELECT name, image, dimensions, created, author, upvotes FROM moose"
	insertMoose = "INSERT INTO moose (name, pos, image, dimensions, created, author, upvotes) VALUES (?, (SELECT COALESCE(MAX(pos), -1) + 1 FROM moose), ?, ?, ?, ?, ?)"
	updateMoose = "UPDATE moose SET image = ?, dimensions = ?, created = ?, author = ?, upvotes = ? WHERE name = ?"
)

type scanner interface {
	Scan(...interface{}) error
}

func scanMoose(row scanner) (*Moose, error) {
	m := new(Moose)
	var created string
	if err := row.Scan(&m.Name, &m.Image, &m.Dimensions, &created, &m.Author, &m.Upvotes); err != nil {
		return nil, err
	}

	t, err := time.Parse(createdFormat, created)
	if err != nil {
		return nil, err
	}
	m.Created = t

	return m, nil
}

func (db *MooseDB) queryMoose(query string, args ...interface{}) (*Moose, error) {
	switch m, err := scanMoose(db.db.QueryRow(query, args...)); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return m, nil
	default:
		return nil, err
	}
}

func (db *MooseDB) queryMany(query string, args ...interface{}) ([]*Moose, error) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meese []*Moose
	for rows.Next() {
		m, err := scanMoose(rows)
		if err != nil {
			return nil, err
		}
		meese = append(meese, m)
	}

	return meese, rows.Err()
}

// Len returns the number of moose.
func (db *MooseDB) Len() (int, error) {
	var n int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM moose").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// PageCount returns the number of gallery pages.
func (db *MooseDB) PageCount() (int, error) {
	n, err := db.Len()
	if err != nil {
		return 0, err
	}
	return (n + PageSize - 1) / PageSize, nil
}

// Get returns the moose called name or nil if there isn't one.
func (db *MooseDB) Get(name string) (*Moose, error) {
	return db.queryMoose(selectMoose+" WHERE name = ?", name)
}

// GetByPos returns the moose at position pos or nil if there isn't one.
func (db *MooseDB) GetByPos(pos int) (*Moose, error) {
	return db.queryMoose(selectMoose+" WHERE pos = ?", pos)
}

// Latest returns the most recently added moose.
func (db *MooseDB) Latest() (*Moose, error) {
	return db.queryMoose(selectMoose + " WHERE pos = (SELECT MAX(pos) FROM moose)")
}

// Oldest returns the first moose added.
func (db *MooseDB) Oldest() (*Moose, error) {
	return db.queryMoose(selectMoose + " WHERE pos = (SELECT MIN(pos) FROM moose)")
}

// Random returns any moose.
func (db *MooseDB) Random() (*Moose, error) {
	return db.queryMoose(selectMoose + " ORDER BY RANDOM() LIMIT 1")
}

// Page returns the moose on gallery page n, counting from zero.
func (db *MooseDB) Page(n int) ([]*Moose, error) {
	if n < 0 {
		return nil, nil
	}
	return db.queryMany(selectMoose+" WHERE pos >= ? AND pos < ? ORDER BY pos", n*PageSize, (n+1)*PageSize)
}

// SearchResult is a moose matching a search along with the gallery page
// it is on.
type SearchResult struct {
	Page  int   `json:"page"`
	Moose Moose `json:"moose"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	// Pages is the number of pages of results
	Pages  int            `json:"pages"`
	Result []SearchResult `json:"result"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search returns page n of the moose whose name contains query. At most
// ten pages of results are returned.
func (db *MooseDB) Search(query string, n int) (*SearchPage, error) {
	rows, err := db.db.Query("SELECT pos, name, image, dimensions, created, author, upvotes FROM moose WHERE name LIKE ? ESCAPE '\\' ORDER BY pos LIMIT ?", "%"+likeEscaper.Replace(query)+"%", PageSize*searchPages)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			pos     int
			created string
			m       Moose
		)
		if err := rows.Scan(&pos, &m.Name, &m.Image, &m.Dimensions, &created, &m.Author, &m.Upvotes); err != nil {
			return nil, err
		}
		if m.Created, err = time.Parse(createdFormat, created); err != nil {
			return nil, err
		}
		results = append(results, SearchResult{
			Page:  pos / PageSize,
			Moose: m,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	page := &SearchPage{
		Pages:  (len(results) + PageSize - 1) / PageSize,
		Result: []SearchResult{},
	}
	if n >= 0 && n < page.Pages {
		end := (n + 1) * PageSize
		if end > len(results) {
			end = len(results)
		}
		page.Result = results[n*PageSize : end]
	}

	return page, nil
}

func isDuplicate(err error) bool {
	var e sqlite3.Error
	if errors.As(err, &e) {
		return e.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

type execer interface {
	Exec(string, ...interface{}) (sql.Result, error)
}

func insert(e execer, m *Moose) error {
	_, err := e.Exec(insertMoose, m.Name, m.Image, m.Dimensions, m.Created.UTC().Format(createdFormat), m.Author, m.Upvotes)
	if isDuplicate(err) {
		return fmt.Errorf("%w: %q", ErrDuplicate, m.Name)
	}
	return err
}

// Insert adds m after every other moose.
func (db *MooseDB) Insert(m *Moose) error {
	return insert(db.db, m)
}

// BulkInsert adds every moose in one transaction, oldest first. Existing
// names are handled according to mode.
func (db *MooseDB) BulkInsert(meese []*Moose, mode DupeMode) (err error) {
	sorted := append(meese[:0:0], meese...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Created.Before(sorted[j].Created)
	})

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, m := range sorted {
		err = insert(tx, m)
		if !errors.Is(err, ErrDuplicate) {
			if err != nil {
				return err
			}
			continue
		}

		switch mode {
		case DupeIgnore:
			err = nil
		case DupeUpdate:
			if _, err = tx.Exec(updateMoose, m.Image, m.Dimensions, m.Created.UTC().Format(createdFormat), m.Author, m.Upvotes, m.Name); err != nil {
				return err
			}
		default:
			return err
		}
	}

	return tx.Commit()
}

// Each calls fn with every moose in order.
func (db *MooseDB) Each(fn func(*Moose) error) error {
	rows, err := db.db.Query(selectMoose + " ORDER BY pos")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMoose(rows)
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}

	return rows.Err()
}
