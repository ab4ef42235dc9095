package storage

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// RotateObjects löscht unter prefix alle Objekte bis auf die keep neuesten.
func RotateObjects(ctx context.Context, client *s3.Client, bucket, prefix string, keep int, log *zap.Logger) error {
	output, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return err
	}

	expired := expiredKeys(output.Contents, keep)
	if len(expired) == 0 {
		log.Info("No rotation needed", zap.Int("objects", len(output.Contents)), zap.Int("keep", keep))
		return nil
	}
	for _, key := range expired {
		log.Info("Deleting old backup", zap.String("key", key))
		_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			log.Warn("Failed to delete backup", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// expiredKeys liefert die Schlüssel aller Objekte außer den keep neuesten.
func expiredKeys(objects []types.Object, keep int) []string {
	if len(objects) <= keep {
		return nil
	}
	sorted := make([]types.Object, len(objects))
	copy(sorted, objects)
	sort.Slice(sorted, func(i, j int) bool {
		return aws.ToTime(sorted[i].LastModified).After(aws.ToTime(sorted[j].LastModified))
	})

	var keys []string
	for _, obj := range sorted[keep:] {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys
}
