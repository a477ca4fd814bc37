package services

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

const maxPhotoSize = 10 * 1024 * 1024 // 10MB

// PhotoStorage stores profile photos and returns their public URLs.
type PhotoStorage interface {
	UploadImage(file multipart.File, header *multipart.FileHeader, owner string) (*UploadResult, error)
	DeleteImage(url string) error
}

type S3Service struct {
	client     *s3.S3
	bucketName string
	region     string
}

func NewS3Service(region, bucketName string, accessKey, secretKey string) *S3Service {
	sess := session.Must(session.NewSession(&aws.Config{
		Region: aws.String(region),
		Credentials: credentials.NewStaticCredentials(
			accessKey,
			secretKey,
			"",
		),
	}))

	return &S3Service{
		client:     s3.New(sess),
		bucketName: bucketName,
		region:     region,
	}
}

type UploadResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

func (s *S3Service) baseURL() string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.bucketName, s.region)
}

func (s *S3Service) UploadImage(file multipart.File, header *multipart.FileHeader, owner string) (*UploadResult, error) {
	// Validate file type
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		// Fallback to extension-based detection
		contentType = contentTypeFromExtension(header.Filename)
	}

	if !isValidImageType(contentType) {
		return nil, fmt.Errorf("invalid file type: %s", contentType)
	}

	if header.Size > maxPhotoSize {
		return nil, fmt.Errorf("file size too large: %d bytes (max: %d bytes)", header.Size, maxPhotoSize)
	}

	fileExt := strings.ToLower(filepath.Ext(header.Filename))
	timestamp := time.Now().Format("2006/01/02")
	key := fmt.Sprintf("profiles/%s/%s/%s%s", owner, timestamp, uuid.New().String(), fileExt)

	_, err := s.client.PutObject(&s3.PutObjectInput{
		Bucket:       aws.String(s.bucketName),
		Key:          aws.String(key),
		Body:         file,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=31536000"), // 1 year cache
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %v", err)
	}

	return &UploadResult{
		Key:         key,
		URL:         s.baseURL() + key,
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
	}, nil
}

// DeleteImage removes the object behind a URL returned by UploadImage.
func (s *S3Service) DeleteImage(url string) error {
	key := strings.TrimPrefix(url, s.baseURL())
	if key == "" || key == url {
		return nil // Not one of ours
	}

	_, err := s.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	return err
}

func isValidImageType(contentType string) bool {
	validTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/gif",
		"image/webp",
	}

	for _, validType := range validTypes {
		if strings.EqualFold(contentType, validType) {
			return true
		}
	}
	return false
}

func contentTypeFromExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
