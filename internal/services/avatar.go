package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	appconfig "showup-backend/internal/config"
	"showup-backend/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const avatarUploadTTL = 5 * time.Minute

var avatarContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/heic": true,
}

// AvatarService hands out presigned S3 uploads for profile pictures
type AvatarService struct {
	store     *repository.Store
	presigner *s3.PresignClient
	bucket    string
	publicURL string
}

// AvatarUpload is returned to the client, which PUTs the image to UploadURL
type AvatarUpload struct {
	UploadURL string `json:"upload_url"`
	AvatarURL string `json:"avatar_url"`
	ExpiresIn int    `json:"expires_in"`
}

// NewAvatarService creates a new avatar service. Static credentials are used
// when configured; otherwise the default AWS credential chain applies.
func NewAvatarService(ctx context.Context, store *repository.Store, cfg appconfig.AWSConfig) (*AvatarService, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.Region)
	if cfg.Endpoint != "" {
		publicURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.S3Bucket
	}

	return &AvatarService{
		store:     store,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.S3Bucket,
		publicURL: publicURL,
	}, nil
}

// PresignUpload creates an upload URL for a new avatar and points the user's
// avatar_url at the object it will create
func (s *AvatarService) PresignUpload(ctx context.Context, userID uint, contentType string) (*AvatarUpload, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if !avatarContentTypes[contentType] {
		return nil, validationf("unsupported content type %q", contentType)
	}

	if _, err := s.store.Users.GetByID(ctx, userID); err != nil {
		return nil, translate(err)
	}

	key := fmt.Sprintf("avatars/%d/%s.jpg", userID, uuid.New().String())

	request, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = avatarUploadTTL
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	avatarURL := s.publicURL + "/" + key
	if err := s.store.Users.UpdateAvatarURL(ctx, userID, avatarURL); err != nil {
		return nil, translate(err)
	}

	log.Info().Uint("user_id", userID).Str("key", key).Msg("Avatar upload presigned")

	return &AvatarUpload{
		UploadURL: request.URL,
		AvatarURL: avatarURL,
		ExpiresIn: int(avatarUploadTTL.Seconds()),
	}, nil
}
