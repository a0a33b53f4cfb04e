// Package storage publishes rendered videos: a Supabase storage bucket when
// configured, the local output directory otherwise.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/skip2/go-qrcode"
	storage_go "github.com/supabase-community/storage-go"
	supa "github.com/supabase-community/supabase-go"

	"github.com/ivlev/scenevideo/internal/config"
)

const (
	// VideoContentType is sent with every upload.
	VideoContentType = "video/mp4"
	// publicPrefix is the path of a public object URL before the bucket.
	publicPrefix = "/storage/v1/object/public/"
)

// ErrNotConfigured is returned when Supabase credentials are missing.
var ErrNotConfigured = errors.New("supabase storage is not configured")

// Target is where a video goes: a bucket and an object path inside it.
type Target struct {
	Bucket string
	Path   string
}

func (t Target) String() string {
	return t.Bucket + "/" + t.Path
}

// DeriveTarget maps the props URL
// .../storage/v1/object/public/<bucket>/<prefix...>/<name>.json onto
// <bucket>, <prefix...>/<name>.mp4. URLs outside a bucket go to fallback
// under their base name.
func DeriveTarget(inputURL, fallback string) (Target, error) {
	u, err := url.Parse(inputURL)
	if err != nil {
		return Target{}, fmt.Errorf("invalid input url: %w", err)
	}
	name := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
	if name == "" || name == "." || name == "/" {
		return Target{}, fmt.Errorf("input url %q has no file name", inputURL)
	}

	rest, ok := strings.CutPrefix(u.Path, publicPrefix)
	if !ok {
		return Target{Bucket: fallback, Path: name + ".mp4"}, nil
	}
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" {
		return Target{Bucket: fallback, Path: name + ".mp4"}, nil
	}
	prefix := parts[1 : len(parts)-1]
	return Target{Bucket: parts[0], Path: path.Join(append(prefix, name+".mp4")...)}, nil
}

// Uploader publishes a local file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, localPath string, t Target) (string, error)
}

// bucketClient is the part of the storage client the uploader uses.
type bucketClient interface {
	UploadFile(bucketId string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
}

// SupabaseUploader uploads to Supabase storage, overwriting existing objects.
type SupabaseUploader struct {
	client  bucketClient
	baseURL string
}

// NewSupabaseUploader connects with the service role key from cfg.
func NewSupabaseUploader(cfg config.SupabaseConfig) (*SupabaseUploader, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	client, err := supa.NewClient(cfg.URL, cfg.ServiceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return &SupabaseUploader{client: client.Storage, baseURL: strings.TrimRight(cfg.URL, "/")}, nil
}

func (s *SupabaseUploader) Upload(ctx context.Context, localPath string, t Target) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	contentType, upsert := VideoContentType, true
	_, err = s.client.UploadFile(t.Bucket, t.Path, f, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", t, err)
	}
	return s.PublicURL(t), nil
}

// PublicURL is the address of an object in a public bucket.
func (s *SupabaseUploader) PublicURL(t Target) string {
	return s.baseURL + publicPrefix + t.Bucket + "/" + t.Path
}

// FileStore keeps videos under Dir, served at BaseURL.
type FileStore struct {
	Dir     string
	BaseURL string
}

func (f FileStore) Upload(ctx context.Context, localPath string, t Target) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel := path.Join(t.Bucket, t.Path)
	dst := filepath.Join(f.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}
	if err := os.Rename(localPath, dst); err != nil {
		if err := copyFile(localPath, dst); err != nil {
			return "", err
		}
	}
	return strings.TrimRight(f.BaseURL, "/") + "/" + rel, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteQR stores a PNG QR code of content with the given side in pixels.
func WriteQR(content, file string, size int) error {
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return err
	}
	if err := qrcode.WriteFile(content, qrcode.Medium, size, file); err != nil {
		return fmt.Errorf("qr code: %w", err)
	}
	return nil
}
