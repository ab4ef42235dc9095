package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"pharma-graph/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client erstellt einen S3-Client für einen S3-kompatiblen Endpunkt.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3Key, cfg.S3Secret, "")),
	}
	if cfg.S3URL != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               cfg.S3URL,
					SigningRegion:     cfg.S3Region,
					HostnameImmutable: true,
				}, nil
			},
		)
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// UploadFile lädt eine Datei ins S3 hoch und gibt den Link zurück.
func UploadFile(ctx context.Context, client *s3.Client, bucket, key string, data []byte, cfg *config.Config) (string, error) {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", err
	}
	return ObjectLink(cfg, bucket, key), nil
}

// DownloadFile lädt ein Objekt vollständig in den Speicher.
func DownloadFile(ctx context.Context, client *s3.Client, bucket, key string) ([]byte, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// ObjectLink baut den öffentlichen Link eines Objekts. Ohne eigenen Endpunkt wird die
// s3://-Form verwendet.
func ObjectLink(cfg *config.Config, bucket, key string) string {
	if cfg.S3URL == "" {
		return fmt.Sprintf("s3://%s/%s", bucket, key)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(cfg.S3URL, "/"), bucket, key)
}

// ParseObjectURI zerlegt "s3://bucket/key". ok ist false für alles andere.
func ParseObjectURI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Bucket bindet Client, Bucket-Name und Konfiguration zusammen.
type Bucket struct {
	client *s3.Client
	name   string
	cfg    *config.Config
}

// NewBucket liefert den konfigurierten Bucket.
func NewBucket(client *s3.Client, cfg *config.Config) *Bucket {
	return &Bucket{client: client, name: cfg.S3Bucket, cfg: cfg}
}

// Upload legt data unter key im konfigurierten Bucket ab.
func (b *Bucket) Upload(ctx context.Context, key string, data []byte) (string, error) {
	return UploadFile(ctx, b.client, b.name, key, data, b.cfg)
}

// Download liest ein Objekt aus einem beliebigen Bucket.
func (b *Bucket) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	return DownloadFile(ctx, b.client, bucket, key)
}
