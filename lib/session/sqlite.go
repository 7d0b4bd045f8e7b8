package session

import (
	"database/sql"
	"encoding/json"
	"errors"

	_ "github.com/mattn/go-sqlite3"

	convCtx "github.com/sofmon/posgate/lib/ctx"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx convCtx.Context, file string) (s *SQLiteStore, err error) {
	ctx = ctx.WithScope("session.NewSQLiteStore", "file", file)
	defer ctx.Exit(&err)

	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS "sessions" (
"id" TEXT PRIMARY KEY,
"updated_at" TIMESTAMP NOT NULL,
"updated_by" TEXT NOT NULL,
"object" BLOB NOT NULL
)`)
	if err != nil {
		err = errors.Join(err, db.Close())
		return
	}

	s = &SQLiteStore{db}
	return
}

func (s *SQLiteStore) Load(ctx convCtx.Context, id convCtx.SessionID) (entry Entry, found bool, err error) {
	ctx = ctx.WithScope("SQLiteStore.Load", "id", id)
	defer ctx.Exit(&err)

	var bytes []byte
	err = s.db.QueryRowContext(ctx, `SELECT "object" FROM "sessions" WHERE "id"=?`, string(id)).Scan(&bytes)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return
	}
	if err != nil {
		return
	}

	err = json.Unmarshal(bytes, &entry)
	if err != nil {
		return
	}

	found = true
	return
}

func (s *SQLiteStore) Save(ctx convCtx.Context, id convCtx.SessionID, entry Entry) (err error) {
	ctx = ctx.WithScope("SQLiteStore.Save", "id", id)
	defer ctx.Exit(&err)

	bytes, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO "sessions" ("id","updated_at","updated_by","object")
VALUES(?,?,?,?)
ON CONFLICT("id") DO UPDATE SET "updated_at"=excluded."updated_at", "updated_by"=excluded."updated_by", "object"=excluded."object"`,
		string(id), entry.UpdatedAt, entry.Record.Username, bytes)
	return
}

func (s *SQLiteStore) Delete(ctx convCtx.Context, id convCtx.SessionID) (err error) {
	ctx = ctx.WithScope("SQLiteStore.Delete", "id", id)
	defer ctx.Exit(&err)

	_, err = s.db.ExecContext(ctx, `DELETE FROM "sessions" WHERE "id"=?`, string(id))
	return
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
