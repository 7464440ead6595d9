package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ytsummarizer/internal/domain"
)

func (d *Database) SaveSummary(ctx context.Context, record domain.SummaryRecord) (int64, error) {
	if strings.TrimSpace(string(record.VideoID)) == "" {
		return 0, errors.New("video ID is empty")
	}

	if strings.TrimSpace(record.Summary) == "" {
		return 0, errors.New("summary is empty")
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `insert into summaries (video_id, url, title, summary, checkpoint, created_at)
	values (?, ?, ?, ?, ?, ?)`

	res, err := d.db.ExecContext(
		ctx,
		query,
		string(record.VideoID),
		strings.TrimSpace(record.URL),
		strings.TrimSpace(record.Title),
		record.Summary,
		record.Checkpoint,
		createdAt.UTC().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert summary: %w", err)
	}

	return res.LastInsertId()
}

// RecentSummaries returns up to limit records, newest first.
func (d *Database) RecentSummaries(ctx context.Context, limit int) ([]domain.SummaryRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `select id, video_id, url, title, summary, checkpoint, created_at
	from summaries
	order by created_at desc, id desc
	limit ?`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"limit", limit,
				"operation", "RecentSummaries")
		}
	}()

	var records []domain.SummaryRecord
	for rows.Next() {
		var (
			r         domain.SummaryRecord
			videoID   string
			createdAt int64
		)
		if err = rows.Scan(&r.ID, &videoID, &r.URL, &r.Title, &r.Summary, &r.Checkpoint, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.VideoID = domain.VideoID(videoID)
		r.CreatedAt = time.UnixMilli(createdAt).UTC()

		records = append(records, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return records, nil
}

// PruneSummaries deletes records created before the given time and reports
// how many were removed.
func (d *Database) PruneSummaries(ctx context.Context, before time.Time) (int64, error) {
	query := "delete from summaries where created_at < ?"

	res, err := d.db.ExecContext(ctx, query, before.UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete summaries: %w", err)
	}

	return res.RowsAffected()
}
