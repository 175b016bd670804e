package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"hr-dashboard/backend/config"
)

// objectAPI s3.Client 中用到的子集，便于测试替换
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store S3 兼容对象存储（R2 / MinIO / S3），用于简历原件归档
type Store struct {
	api    objectAPI
	bucket string
	prefix string
	now    func() time.Time
}

// New 根据配置创建存储；Endpoint 非空时走自定义端点（path-style）
func New(ctx context.Context, cfg *config.StorageConfig) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("加载对象存储配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{api: client, bucket: cfg.Bucket, prefix: cfg.Prefix, now: time.Now}, nil
}

// Key 生成归档对象键：<prefix><yyyy/mm/dd>/<uuid>-<文件名>
func (s *Store) Key(fileName string) string {
	day := s.now().Format("2006/01/02")
	return path.Join(s.prefix, day, uuid.NewString()+"-"+path.Base(fileName))
}

// Put 上传对象，返回对象键
func (s *Store) Put(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	key := s.Key(fileName)
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("上传对象 %s 失败: %w", key, err)
	}
	return key, nil
}

// Get 读取对象内容
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s 失败: %w", key, err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("读取对象内容失败: %w", err)
	}
	return buf.Bytes(), nil
}
