// Package datarecording provides a buffered SQLite backend for recording
// simulation data.
package datarecording

import (
	"database/sql"
	"fmt"
	"log"
	"reflect"
	"strings"

	// SQLite database driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data.
type DataRecorder interface {
	// CreateTable creates a new table using the fields of the sample entry
	// as columns.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers one entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all created tables.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()
}

// NewDataRecorder creates a DataRecorder backed by a SQLite file at the
// given path.
func NewDataRecorder(path string) DataRecorder {
	if !strings.HasSuffix(path, ".sqlite3") {
		path += ".sqlite3"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		log.Panic(err)
	}

	w := newSQLiteWriter(db)
	atexit.Register(func() { w.Flush() })

	return w
}

// NewDataRecorderWithDB creates a DataRecorder on an existing database
// handle. It is mainly useful for tests with in-memory databases.
func NewDataRecorderWithDB(db *sql.DB) DataRecorder {
	w := newSQLiteWriter(db)
	atexit.Register(func() { w.Flush() })

	return w
}

func newSQLiteWriter(db *sql.DB) *sqliteWriter {
	return &sqliteWriter{
		db:        db,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}
}

type table struct {
	name    string
	columns []string
	pending []any
}

type sqliteWriter struct {
	db        *sql.DB
	batchSize int
	tables    map[string]*table
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	if _, ok := w.tables[tableName]; ok {
		log.Panicf("table %s already exists", tableName)
	}

	columns := entryColumns(sampleEntry)

	stmt := fmt.Sprintf("CREATE TABLE %s (%s)",
		tableName, strings.Join(columns, ", "))
	_, err := w.db.Exec(stmt)
	if err != nil {
		log.Panic(err)
	}

	w.tables[tableName] = &table{
		name:    tableName,
		columns: columns,
	}
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	t, ok := w.tables[tableName]
	if !ok {
		log.Panicf("table %s does not exist", tableName)
	}

	t.pending = append(t.pending, entry)
	if len(t.pending) >= w.batchSize {
		w.flushTable(t)
	}
}

func (w *sqliteWriter) ListTables() []string {
	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}

	return names
}

func (w *sqliteWriter) Flush() {
	for _, t := range w.tables {
		w.flushTable(t)
	}
}

func (w *sqliteWriter) flushTable(t *table) {
	if len(t.pending) == 0 {
		return
	}

	tx, err := w.db.Begin()
	if err != nil {
		log.Panic(err)
	}

	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", len(t.columns)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s VALUES (%s)",
		t.name, placeholders))
	if err != nil {
		log.Panic(err)
	}

	for _, entry := range t.pending {
		_, err := stmt.Exec(entryValues(entry)...)
		if err != nil {
			log.Panic(err)
		}
	}

	err = tx.Commit()
	if err != nil {
		log.Panic(err)
	}

	t.pending = t.pending[:0]
}

func entryColumns(entry any) []string {
	v := reflect.ValueOf(entry)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		log.Panicf("entry must be a struct, got %s", v.Kind())
	}

	columns := make([]string, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		field := v.Type().Field(i)
		if !field.IsExported() {
			continue
		}

		columns = append(columns, strings.ToLower(field.Name))
	}

	return columns
}

func entryValues(entry any) []any {
	v := reflect.ValueOf(entry)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	values := make([]any, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		if !v.Type().Field(i).IsExported() {
			continue
		}

		values = append(values, v.Field(i).Interface())
	}

	return values
}
