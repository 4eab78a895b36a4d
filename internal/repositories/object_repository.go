package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/daloestt55/connecta-sub001/internal/models"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectRepository backs the storage buckets.
type ObjectRepository interface {
	Put(ctx context.Context, obj models.StorageObject) error
	Get(ctx context.Context, bucket, key string) (models.StorageObject, error)
}

// ObjectRepo is a sqlx implementation of ObjectRepository.
type ObjectRepo struct {
	db *sqlx.DB
}

// NewObjectRepo constructs an ObjectRepo.
func NewObjectRepo(db *sqlx.DB) *ObjectRepo {
	return &ObjectRepo{db: db}
}

// Put stores an object; an existing bucket/key pair is overwritten.
func (r *ObjectRepo) Put(ctx context.Context, obj models.StorageObject) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO storage_objects (bucket, key, content_type, size, data)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (bucket, key) DO UPDATE SET content_type = EXCLUDED.content_type, size = EXCLUDED.size, data = EXCLUDED.data`,
		obj.Bucket, obj.Key, obj.ContentType, obj.Size, obj.Data)
	return err
}

// Get fetches an object by bucket and key.
func (r *ObjectRepo) Get(ctx context.Context, bucket, key string) (models.StorageObject, error) {
	var obj models.StorageObject
	err := r.db.GetContext(ctx, &obj, `SELECT bucket, key, content_type, size, data, created_at
        FROM storage_objects WHERE bucket=$1 AND key=$2`, bucket, key)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StorageObject{}, ErrObjectNotFound
	}
	return obj, err
}
