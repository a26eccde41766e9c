// Package services - services/backup_service.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"school-trips/logger"
	"school-trips/models"
)

// BackupService uploads database snapshots to S3 so the school has an
// off-site copy of the JSON document.
type BackupService struct {
	Bucket string
	S3     s3iface.S3API
	now    func() time.Time
}

// NewBackupService builds a backup service against the given bucket.
func NewBackupService(bucket string) *BackupService {
	return &BackupService{
		Bucket: bucket,
		S3:     s3.New(session.Must(session.NewSession())),
		now:    time.Now,
	}
}

// BackupKey names the object for a given day, matching the filename
// the browser export always used.
func BackupKey(when time.Time) string {
	return fmt.Sprintf("backup_hispanidad_%s.json", when.Format("2006-01-02"))
}

// Upload marshals the snapshot and puts it to the bucket. Returns the
// object key written.
func (s *BackupService) Upload(snap models.Snapshot) (string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}

	clock := s.now
	if clock == nil {
		clock = time.Now
	}
	key := BackupKey(clock())
	_, err = s.S3.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		logger.Error.Printf("backup: upload of %s failed: %v", key, err)
		return "", err
	}
	logger.Info.Printf("backup: snapshot uploaded as s3://%s/%s", s.Bucket, key)
	return key, nil
}
