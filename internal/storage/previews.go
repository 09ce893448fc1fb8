/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// language=SQL
// dialect=SQLite
const upsertPreviewSQL = `INSERT INTO previews(page_id, thumb_blob, w, h, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(page_id) DO UPDATE SET
		thumb_blob = excluded.thumb_blob,
		w          = excluded.w,
		h          = excluded.h,
		updated_at = excluded.updated_at`

// language=SQL
// dialect=SQLite
const selectPreviewSQL = `SELECT thumb_blob, w, h FROM previews WHERE page_id = ?`

// SavePreview stores or replaces the rendered thumbnail for a page.
func SavePreview(ctx context.Context, ph *ProjectHandle, pageID string, thumb []byte, w, h int) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, upsertPreviewSQL, pageID, thumb, w, h, time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetPreview returns the cached thumbnail for a page, or nil if none.
func GetPreview(ctx context.Context, ph *ProjectHandle, pageID string) ([]byte, int, int, error) {
	if ph == nil {
		return nil, 0, 0, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, 0, 0, err
	}
	defer func() { _ = db.Close() }()
	var blob []byte
	var w, h int
	err = db.QueryRowContext(ctx, selectPreviewSQL, pageID).Scan(&blob, &w, &h)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, 0, nil
	}
	if err != nil {
		return nil, 0, 0, err
	}
	return blob, w, h, nil
}
