package models

import "time"

// StorageObject is one uploaded blob inside a named bucket.
type StorageObject struct {
	Bucket      string    `db:"bucket" json:"bucket"`
	Key         string    `db:"key" json:"key"`
	ContentType string    `db:"content_type" json:"content_type"`
	Size        int64     `db:"size" json:"size"`
	Data        []byte    `db:"data" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
