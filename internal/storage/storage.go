package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectScheme prefixes locations served by the object store.
const ObjectScheme = "s3://"

// Location is either a local path or an object in a bucket.
type Location struct {
	Path   string
	Bucket string
	Key    string
}

// ParseLocation splits "s3://bucket/key" into bucket and key. Anything else
// is treated as a local path.
func ParseLocation(s string) (Location, error) {
	if !strings.HasPrefix(s, ObjectScheme) {
		if s == "" {
			return Location{}, errors.New("empty location")
		}
		return Location{Path: s}, nil
	}

	bucket, key, _ := strings.Cut(strings.TrimPrefix(s, ObjectScheme), "/")
	if bucket == "" || key == "" {
		return Location{}, fmt.Errorf("invalid object location %q, want s3://bucket/key", s)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

func (l Location) IsObject() bool {
	return l.Bucket != ""
}

// Compressed reports whether the location holds gzip data, judged by name.
func (l Location) Compressed() bool {
	name := l.Path
	if l.IsObject() {
		name = l.Key
	}
	return strings.HasSuffix(name, ".gz")
}

func (l Location) String() string {
	if l.IsObject() {
		return ObjectScheme + l.Bucket + "/" + l.Key
	}
	return l.Path
}

// Abs returns the location with local paths made absolute.
func (l Location) Abs() string {
	if l.IsObject() {
		return l.String()
	}
	if abs, err := filepath.Abs(l.Path); err == nil {
		return abs
	}
	return l.Path
}

// S3Config describes the S3 compatible endpoint used for s3:// locations.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Insecure        bool
}

// FS opens inputs and creates outputs on the local filesystem or, for
// s3:// locations, in an object store. Names ending in .gz are transparently
// (de)compressed.
type FS struct {
	client *minio.Client
}

// New returns an FS. Without an endpoint only local paths can be used.
func New(cfg S3Config) (FS, error) {
	if cfg.Endpoint == "" {
		return FS{}, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: !cfg.Insecure,
		Region: cfg.Region,
	})
	if err != nil {
		return FS{}, fmt.Errorf("init object store client: %w", err)
	}
	return FS{client: client}, nil
}

// Open returns a reader for location. Missing local files and objects both
// satisfy errors.Is(err, fs.ErrNotExist).
func (s FS) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	var rc io.ReadCloser
	if loc.IsObject() {
		rc, err = s.openObject(ctx, loc)
	} else {
		rc, err = os.Open(loc.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", loc, err)
	}

	if !loc.Compressed() {
		return rc, nil
	}

	zr, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("open %s: %w", loc, err)
	}
	return &stackedReader{Reader: zr, closers: []io.Closer{zr, rc}}, nil
}

func (s FS) openObject(ctx context.Context, loc Location) (io.ReadCloser, error) {
	if s.client == nil {
		return nil, errors.New("no object store endpoint configured")
	}

	obj, err := s.client.GetObject(ctx, loc.Bucket, loc.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces missing objects before the first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %v", fs.ErrNotExist, err)
		}
		return nil, err
	}
	return obj, nil
}

// Create returns a writer for location. Objects are uploaded when the writer
// is closed, so Close must be checked.
func (s FS) Create(ctx context.Context, location string) (io.WriteCloser, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	var wc io.WriteCloser
	if loc.IsObject() {
		if s.client == nil {
			return nil, fmt.Errorf("create %s: no object store endpoint configured", loc)
		}
		wc = &objectWriter{ctx: ctx, client: s.client, loc: loc}
	} else {
		f, err := os.Create(loc.Path)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", loc, err)
		}
		wc = f
	}

	if !loc.Compressed() {
		return wc, nil
	}

	zw := gzip.NewWriter(wc)
	return &stackedWriter{Writer: zw, closers: []io.Closer{zw, wc}}, nil
}

type objectWriter struct {
	ctx    context.Context
	client *minio.Client
	loc    Location
	buf    bytes.Buffer
}

func (w *objectWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *objectWriter) Close() error {
	contentType := "text/plain"
	if w.loc.Compressed() {
		contentType = "application/gzip"
	}
	_, err := w.client.PutObject(w.ctx, w.loc.Bucket, w.loc.Key, &w.buf, int64(w.buf.Len()),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("upload %s: %w", w.loc, err)
	}
	return nil
}

// stackedReader closes every layer, innermost last.
type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (r *stackedReader) Close() error {
	return closeAll(r.closers)
}

type stackedWriter struct {
	io.Writer
	closers []io.Closer
}

func (w *stackedWriter) Close() error {
	return closeAll(w.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
