package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
)

var ErrUnsupportedMedia = errors.New("unsupported media type")

// Stored describes an uploaded object.
type Stored struct {
	URL      string
	Type     string
	MimeType string
	Size     int64
}

type Storage interface {
	SaveFile(fileHeader *multipart.FileHeader) (Stored, error)
	DeleteFile(url string) error
}

type LocalStorage struct {
	uploadDir string
	urlPrefix string
}

type SpacesStorage struct {
	client   *s3.S3
	bucket   string
	cdnURL   string
	endpoint string
}

// NewLocalStorage stores files under uploadDir; they are served at urlPrefix.
func NewLocalStorage(uploadDir, urlPrefix string) *LocalStorage {
	return &LocalStorage{uploadDir: uploadDir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{
		client:   s3.New(sess),
		bucket:   bucket,
		cdnURL:   cdnURL,
		endpoint: endpoint,
	}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// objectName builds a unique name that keeps a readable hint of the original.
func objectName(originalFilename, ext string) string {
	baseName := strings.TrimSuffix(filepath.Base(originalFilename), filepath.Ext(originalFilename))
	baseName = strings.ReplaceAll(baseName, " ", "_")
	baseName = unsafeChars.ReplaceAllString(baseName, "")
	if len(baseName) > 48 {
		baseName = baseName[:48]
	}
	if baseName == "" {
		baseName = "file"
	}
	return fmt.Sprintf("%s_%s%s", baseName, uuid.New().String(), ext)
}

// MediaTypeOf maps a sniffed mime type to the catalog's image/video kinds.
func MediaTypeOf(mimeType string) (string, error) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return model.MediaTypeImage, nil
	case strings.HasPrefix(mimeType, "video/"):
		return model.MediaTypeVideo, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, mimeType)
	}
}

// sniff detects the content type from the file's leading bytes and rewinds it.
func sniff(src multipart.File) (*mimetype.MIME, error) {
	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to detect content type: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}
	return mtype, nil
}

func open(fileHeader *multipart.FileHeader) (multipart.File, Stored, string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return nil, Stored{}, "", fmt.Errorf("failed to open uploaded file: %w", err)
	}

	mtype, err := sniff(src)
	if err != nil {
		src.Close()
		return nil, Stored{}, "", err
	}
	kind, err := MediaTypeOf(mtype.String())
	if err != nil {
		src.Close()
		return nil, Stored{}, "", err
	}

	name := objectName(fileHeader.Filename, mtype.Extension())
	log.Debug().
		Str("original", fileHeader.Filename).
		Str("stored", name).
		Str("mime", mtype.String()).
		Msg("upload normalized")

	return src, Stored{Type: kind, MimeType: mtype.String(), Size: fileHeader.Size}, name, nil
}

func (ls *LocalStorage) SaveFile(fileHeader *multipart.FileHeader) (Stored, error) {
	src, stored, name, err := open(fileHeader)
	if err != nil {
		return Stored{}, err
	}
	defer src.Close()

	if err := os.MkdirAll(ls.uploadDir, 0755); err != nil {
		return Stored{}, fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(filepath.Join(ls.uploadDir, name))
	if err != nil {
		return Stored{}, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		return Stored{}, fmt.Errorf("failed to save file: %w", err)
	}

	stored.Size = written
	stored.URL = ls.urlPrefix + "/" + name
	return stored, nil
}

func (ls *LocalStorage) DeleteFile(url string) error {
	if !strings.HasPrefix(url, ls.urlPrefix+"/") {
		return nil
	}
	name := path.Base(url)
	err := os.Remove(filepath.Join(ls.uploadDir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (ss *SpacesStorage) SaveFile(fileHeader *multipart.FileHeader) (Stored, error) {
	src, stored, name, err := open(fileHeader)
	if err != nil {
		return Stored{}, err
	}
	defer src.Close()

	key := fmt.Sprintf("uploads/%s", name)

	_, err = ss.client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        src,
		ContentType: aws.String(stored.MimeType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to upload file to spaces")
		return Stored{}, fmt.Errorf("failed to upload to Spaces: %w", err)
	}

	stored.URL = fmt.Sprintf("%s/%s", strings.TrimSuffix(ss.cdnURL, "/"), key)
	return stored, nil
}

func (ss *SpacesStorage) DeleteFile(url string) error {
	prefix := strings.TrimSuffix(ss.cdnURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	key := strings.TrimPrefix(url, prefix)

	_, err := ss.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to delete file from spaces")
		return fmt.Errorf("failed to delete from Spaces: %w", err)
	}
	return nil
}
