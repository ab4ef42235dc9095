package storage

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestExpiredKeys(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	objects := []types.Object{
		{Key: aws.String("b2"), LastModified: aws.Time(base.Add(2 * time.Hour))},
		{Key: aws.String("b0"), LastModified: aws.Time(base)},
		{Key: aws.String("b3"), LastModified: aws.Time(base.Add(3 * time.Hour))},
		{Key: aws.String("b1"), LastModified: aws.Time(base.Add(time.Hour))},
	}

	got := expiredKeys(objects, 2)
	if len(got) != 2 || got[0] != "b1" || got[1] != "b0" {
		t.Fatalf("unexpected expired keys %v", got)
	}
	if got := expiredKeys(objects, 4); got != nil {
		t.Fatalf("expected nothing to expire, got %v", got)
	}
	if *objects[0].Key != "b2" {
		t.Fatalf("input slice was reordered")
	}
}
