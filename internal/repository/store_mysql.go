package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// MySQLStore is a Keyed stored as JSON rows in the kv_entries table, one
// bucket per collection.  See database.EnsureSchema for the table layout.
type MySQLStore[K comparable, V any] struct {
	DB     *sql.DB
	bucket string
}

func NewMySQLStore[K comparable, V any](db *sql.DB, bucket string) *MySQLStore[K, V] {
	return &MySQLStore[K, V]{DB: db, bucket: bucket}
}

func (s *MySQLStore[K, V]) key(k K) string { return fmt.Sprint(k) }

func (s *MySQLStore[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var v V
	var raw []byte
	err := s.DB.QueryRowContext(ctx,
		"SELECT v FROM kv_entries WHERE bucket=? AND k=? LIMIT 1",
		s.bucket, s.key(key)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s entry: %w", s.bucket, err)
	}
	return v, true, nil
}

func (s *MySQLStore[K, V]) Set(ctx context.Context, key K, v V) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", s.bucket, err)
	}
	_, err = s.DB.ExecContext(ctx,
		"INSERT INTO kv_entries (bucket, k, v) VALUES (?,?,?) ON DUPLICATE KEY UPDATE v=VALUES(v)",
		s.bucket, s.key(key), raw)
	return err
}

// SetIfAbsent relies on the (bucket, k) primary key: INSERT IGNORE affects
// no rows when the key is taken.
func (s *MySQLStore[K, V]) SetIfAbsent(ctx context.Context, key K, v V) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s entry: %w", s.bucket, err)
	}
	res, err := s.DB.ExecContext(ctx,
		"INSERT IGNORE INTO kv_entries (bucket, k, v) VALUES (?,?,?)",
		s.bucket, s.key(key), raw)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Update locks the row with SELECT ... FOR UPDATE for the duration of fn.
func (s *MySQLStore[K, V]) Update(ctx context.Context, key K, fn func(V) (V, error)) (found bool, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var raw []byte
	err = tx.QueryRowContext(ctx,
		"SELECT v FROM kv_entries WHERE bucket=? AND k=? FOR UPDATE",
		s.bucket, s.key(key)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, tx.Rollback()
	}
	if err != nil {
		return false, err
	}
	var cur V
	if err = json.Unmarshal(raw, &cur); err != nil {
		return true, fmt.Errorf("decode %s entry: %w", s.bucket, err)
	}
	next, err := fn(cur)
	if err != nil {
		return true, err
	}
	out, err := json.Marshal(next)
	if err != nil {
		return true, fmt.Errorf("encode %s entry: %w", s.bucket, err)
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE kv_entries SET v=? WHERE bucket=? AND k=?",
		out, s.bucket, s.key(key)); err != nil {
		return true, err
	}
	if err = tx.Commit(); err != nil {
		return true, err
	}
	return true, nil
}

func (s *MySQLStore[K, V]) Delete(ctx context.Context, key K) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		"DELETE FROM kv_entries WHERE bucket=? AND k=?",
		s.bucket, s.key(key))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MySQLStore[K, V]) List(ctx context.Context) ([]V, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT v FROM kv_entries WHERE bucket=?", s.bucket)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []V
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var v V
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", s.bucket, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
