package heap

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/cluso-db/bptreeindex/btree"
)

// validTableName matches a bare MySQL identifier (no schema qualifier,
// no backtick or quote characters), the only shape s.table is allowed
// to take before it is interpolated into the scan query -- table names
// cannot be bound as query placeholders, so this is the guard against
// building "SELECT * FROM <injected SQL>" from a hostile or malformed
// table argument.
var validTableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteIdentifier backtick-quotes name, doubling any embedded backtick,
// matching the teacher's own identifier-quoting convention in
// server/innodb/metadata/column_def.go.
func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// RowEncoder packs one scanned SQL row into a fixed-width record buffer
// matching the layout an index's attr_byte_offset expects, so the same
// extraction logic in btree.OpenOrCreate's bulk-load path works
// regardless of whether the source was a local heap file or a live
// MySQL table.
type RowEncoder func(cols []sql.RawBytes) []byte

// MySQLScanner streams "SELECT * FROM <table>" rows over
// database/sql + go-sql-driver/mysql and hands each one to encode. It
// stands in for the heap-file scanner when the base relation actually
// lives in a MySQL database rather than this repo's own heap file
// format (spec §1's "heap-file scanner used to bulk-load the index at
// creation time from an existing relation").
type MySQLScanner struct {
	dsn     string
	table   string
	encode  RowEncoder
	db      *sql.DB
	rows    *sql.Rows
	cols    []sql.RawBytes
	ptrs    []interface{}
	ordinal uint32
}

// NewMySQLScanner builds a scanner over table at dsn. encode converts a
// row's raw column bytes into the fixed-width record buffer the bulk
// loader will slice attr_byte_offset out of.
func NewMySQLScanner(dsn, table string, encode RowEncoder) *MySQLScanner {
	return &MySQLScanner{dsn: dsn, table: table, encode: encode}
}

func (s *MySQLScanner) Open() error {
	if !validTableName.MatchString(s.table) {
		return errors.Errorf("heap: mysql: invalid table name %q", s.table)
	}

	db, err := sql.Open("mysql", s.dsn)
	if err != nil {
		return errors.Wrap(err, "heap: mysql: open")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return errors.Wrap(err, "heap: mysql: ping")
	}
	rows, err := db.Query(fmt.Sprintf("SELECT * FROM %s", quoteIdentifier(s.table)))
	if err != nil {
		db.Close()
		return errors.Wrap(err, "heap: mysql: query")
	}
	colNames, err := rows.Columns()
	if err != nil {
		rows.Close()
		db.Close()
		return errors.Wrap(err, "heap: mysql: columns")
	}

	s.db = db
	s.rows = rows
	s.cols = make([]sql.RawBytes, len(colNames))
	s.ptrs = make([]interface{}, len(colNames))
	for i := range s.cols {
		s.ptrs[i] = &s.cols[i]
	}
	s.ordinal = 1 // RecordId slot 0 is reserved
	return nil
}

func (s *MySQLScanner) Next() ([]byte, btree.RecordId, bool, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, btree.RecordId{}, false, errors.Wrap(err, "heap: mysql: iterate")
		}
		return nil, btree.RecordId{}, false, nil
	}
	if err := s.rows.Scan(s.ptrs...); err != nil {
		return nil, btree.RecordId{}, false, errors.Wrap(err, "heap: mysql: scan row")
	}

	rec := s.encode(s.cols)
	rid := btree.RecordId{PageNo: 1, Slot: s.ordinal}
	s.ordinal++
	return rec, rid, true, nil
}

func (s *MySQLScanner) Close() error {
	if s.rows != nil {
		s.rows.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
