package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const archiveContentType = "application/json"

// StandingsArchiver writes final standings documents to object storage.
type StandingsArchiver struct {
	uploader FileUploader
	prefix   string
	now      func() time.Time
}

func NewStandingsArchiver(uploader FileUploader, prefix string) *StandingsArchiver {
	if prefix == "" {
		prefix = "standings"
	}
	return &StandingsArchiver{uploader: uploader, prefix: prefix, now: time.Now}
}

// ArchiveKey is the object key for a tournament archive taken at ts.
func (a *StandingsArchiver) ArchiveKey(tournamentID int, ts time.Time) string {
	return fmt.Sprintf("%s/tournament-%d/%s.json", a.prefix, tournamentID, ts.UTC().Format("20060102T150405Z"))
}

// Archive uploads doc as indented JSON and returns where it was stored.
func (a *StandingsArchiver) Archive(ctx context.Context, tournamentID int, doc interface{}) (*UploadResult, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode standings archive for tournament %d: %w", tournamentID, err)
	}
	key := a.ArchiveKey(tournamentID, a.now())
	result, err := a.uploader.Upload(ctx, key, archiveContentType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to archive standings for tournament %d: %w", tournamentID, err)
	}
	return result, nil
}
