// Package objstore implements a provider on top of an S3 compatible object
// store through minio-go.
package objstore

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"iter"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/iudanet/journalsync/internal/provider"
)

// Config holds connection parameters. Credentials come from the process
// environment and are never persisted.
type Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Provider stores objects in a single bucket.
type Provider struct {
	client *minio.Client
	bucket string
	region string
}

var _ provider.Provider = (*Provider)(nil)

// New builds the minio client. It does not contact the server.
func New(cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Transport:    tr,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupAuto,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage client: %w", err)
	}

	return &Provider{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// Name returns "s3".
func (p *Provider) Name() string {
	return "s3"
}

// EnsureBucket creates the bucket when it does not exist yet.
func (p *Provider) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return classify("bucket_exists", p.bucket, err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region}); err != nil {
		return classify("make_bucket", p.bucket, err)
	}
	return nil
}

// Upload puts the object and reads back its server side metadata.
func (p *Provider) Upload(ctx context.Context, remotePath string, r io.Reader, size int64) (provider.Metadata, error) {
	key, err := provider.CleanPath(remotePath)
	if err != nil {
		return provider.Metadata{}, err
	}
	info, err := p.client.PutObject(ctx, p.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return provider.Metadata{}, classify("upload", key, err)
	}
	if size >= 0 && info.Size != size {
		return provider.Metadata{}, provider.Transient("upload", key,
			fmt.Errorf("size mismatch: expected %d bytes, stored %d", size, info.Size))
	}
	return p.Stat(ctx, key)
}

// Download streams the object into w.
func (p *Provider) Download(ctx context.Context, remotePath string, w io.Writer) (provider.Metadata, error) {
	key, err := provider.CleanPath(remotePath)
	if err != nil {
		return provider.Metadata{}, err
	}
	obj, err := p.client.GetObject(ctx, p.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return provider.Metadata{}, classify("download", key, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return provider.Metadata{}, classify("download", key, err)
	}
	if _, err := io.Copy(w, obj); err != nil {
		return provider.Metadata{}, classify("download", key, err)
	}
	return metadata(info), nil
}

// List returns every object under prefix. Folder markers are skipped.
func (p *Provider) List(ctx context.Context, prefix string) ([]provider.Metadata, error) {
	var items []provider.Metadata
	for info, err := range p.objects(ctx, prefix) {
		if err != nil {
			return nil, classify("list", prefix, err)
		}
		if strings.HasSuffix(info.Key, "/") {
			continue
		}
		items = append(items, metadata(info))
	}
	return items, nil
}

// objects iterates over the objects below prefix, treating it as a folder.
func (p *Provider) objects(ctx context.Context, prefix string) iter.Seq2[minio.ObjectInfo, error] {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return func(yield func(minio.ObjectInfo, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		for info := range p.client.ListObjects(ctx, p.bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}) {
			if !yield(info, info.Err) || info.Err != nil {
				return
			}
		}
	}
}

// Delete removes a single object, or every object under a folder.
func (p *Provider) Delete(ctx context.Context, remotePath string) error {
	key, err := provider.CleanPath(remotePath)
	if err != nil {
		return err
	}

	_, err = p.client.StatObject(ctx, p.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		if err := p.client.RemoveObject(ctx, p.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return classify("delete", key, err)
		}
		return nil
	}
	if err := classify("delete", key, err); !errors.Is(err, provider.ErrNotFound) {
		return err
	}

	toRemove := make(chan minio.ObjectInfo)
	listErr := make(chan error, 1)
	found := false
	go func() {
		defer close(toRemove)
		for info, err := range p.objects(ctx, key) {
			if err != nil {
				listErr <- err
				return
			}
			found = true
			select {
			case toRemove <- info:
			case <-ctx.Done():
				listErr <- ctx.Err()
				return
			}
		}
		listErr <- nil
	}()

	var removeErr error
	for rerr := range p.client.RemoveObjects(ctx, p.bucket, toRemove, minio.RemoveObjectsOptions{}) {
		if removeErr == nil {
			removeErr = rerr.Err
		}
	}
	if err := <-listErr; err != nil {
		return classify("delete", key, err)
	}
	if removeErr != nil {
		return classify("delete", key, removeErr)
	}
	if !found {
		return fmt.Errorf("delete %s: %w", key, provider.ErrNotFound)
	}
	return nil
}

// Stat returns object metadata or provider.ErrNotFound.
func (p *Provider) Stat(ctx context.Context, remotePath string) (provider.Metadata, error) {
	key, err := provider.CleanPath(remotePath)
	if err != nil {
		return provider.Metadata{}, err
	}
	info, err := p.client.StatObject(ctx, p.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return provider.Metadata{}, classify("stat", key, err)
	}
	return metadata(info), nil
}

// CreateFolder writes a zero byte folder marker.
func (p *Provider) CreateFolder(ctx context.Context, folder string) error {
	key, err := provider.CleanPath(folder)
	if err != nil {
		return err
	}
	_, err = p.client.PutObject(ctx, p.bucket, key+"/", bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	if err != nil {
		return classify("create_folder", key, err)
	}
	return nil
}

func metadata(info minio.ObjectInfo) provider.Metadata {
	return provider.Metadata{
		Path:         info.Key,
		Size:         info.Size,
		LastModified: info.LastModified.UTC(),
		ETag:         info.ETag,
		IsDir:        strings.HasSuffix(info.Key, "/"),
	}
}

var permanentCodes = map[string]bool{
	"AccessDenied":          true,
	"AllAccessDisabled":     true,
	"InvalidAccessKeyId":    true,
	"InvalidBucketName":     true,
	"NoSuchBucket":          true,
	"SignatureDoesNotMatch": true,
	"InvalidObjectName":     true,
}

// classify maps minio errors onto the provider error taxonomy.
func classify(op, key string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return provider.Transient(op, key, err)
	}

	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NotFound":
		return fmt.Errorf("%s %s: %w", op, key, provider.ErrNotFound)
	case permanentCodes[resp.Code]:
		return provider.Permanent(op, key, err)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", op, key, provider.ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return provider.Permanent(op, key, err)
	}
	return provider.Transient(op, key, err)
}
