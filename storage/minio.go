package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"soundmap/config"
	"soundmap/logger"
	"soundmap/model"
	"soundmap/repository"

	"github.com/goccy/go-json"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	snapshotPrefix = "snapshots"
	latestObject   = "snapshots/latest.json"
)

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
	ETag         string
}

// NewMinioClient 根据配置创建 MinIO 客户端
func NewMinioClient(cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}
	return client, nil
}

// SnapshotStore 把快照写入对象存储：latest.json 始终指向最新一次运行，
// 另按日期保留一份历史副本。
type SnapshotStore struct {
	client *minio.Client
	bucket string
	region string
}

// NewSnapshotStore 创建对象存储快照仓库
func NewSnapshotStore(client *minio.Client, bucket, region string) *SnapshotStore {
	return &SnapshotStore{client: client, bucket: bucket, region: region}
}

func (s *SnapshotStore) Name() string { return "minio" }

// Bucket 返回存储桶名
func (s *SnapshotStore) Bucket() string { return s.bucket }

// EnsureBucket 检查存储桶是否存在，不存在则创建
func (s *SnapshotStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	logger.Info("[MinIO] bucket created", logger.String("bucket", s.bucket))
	return nil
}

// Save 上传 latest.json 和按日期归档的副本
func (s *SnapshotStore) Save(ctx context.Context, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return err
	}

	keys := []string{latestObject}
	if archive := archiveKey(snap); archive != "" {
		keys = append(keys, archive)
	}
	for _, key := range keys {
		_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: "application/json",
		})
		if err != nil {
			return fmt.Errorf("上传快照 %s 失败: %w", key, err)
		}
		logger.Debug("[MinIO] snapshot uploaded", logger.String("key", key), logger.Int("bytes", len(data)))
	}
	return nil
}

// Load 读取 latest.json
func (s *SnapshotStore) Load(ctx context.Context) (*model.Snapshot, error) {
	return s.LoadKey(ctx, latestObject)
}

// LoadKey 读取指定对象中的快照
func (s *SnapshotStore) LoadKey(ctx context.Context, key string) (*model.Snapshot, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapObjectError(key, err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key only surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapObjectError(key, err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return snap.Normalize(), nil
}

// ListSnapshots 列出快照对象并统计
func (s *SnapshotStore) ListSnapshots(ctx context.Context) ([]ObjectInfo, *BucketStats, error) {
	stats := &BucketStats{}
	var objects []ObjectInfo

	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    snapshotPrefix + "/",
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("列出对象时出错: %w", object.Err)
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
			ETag:         object.ETag,
		})
	}
	return objects, stats, nil
}

// archiveKey 按生成日期归档：snapshots/2006/01/02/<id>.json
func archiveKey(snap *model.Snapshot) string {
	if snap == nil || snap.Meta == nil || snap.Meta.ID == "" {
		return ""
	}
	day := snap.Meta.GeneratedAt.UTC().Format("2006/01/02")
	return path.Join(snapshotPrefix, day, snap.Meta.ID+".json")
}

func mapObjectError(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return repository.ErrSnapshotNotFound
	}
	return fmt.Errorf("读取快照 %s 失败: %w", key, err)
}

// FormatSize 格式化文件大小
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
