package services

import (
	"errors"
	"fmt"
	"io"
	"lawjournal/internal/logger"
	"lawjournal/internal/utils"
	"os"
	"path/filepath"
	"strings"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type UploadKind int

const (
	KindCoverImage UploadKind = iota
	KindDocument
)

func (k UploadKind) String() string {
	if k == KindDocument {
		return "document"
	}
	return "cover image"
}

var allowedExts = map[UploadKind]map[string]bool{
	KindCoverImage: {"jpg": true, "jpeg": true, "png": true},
	KindDocument:   {"pdf": true, "doc": true, "docx": true},
}

var ErrUploadTooLarge = errors.New("upload exceeds size limit")

// Storage keeps submitted files. Prepare checks a file and picks its
// reference without touching disk; Save writes the bytes under that reference.
type Storage interface {
	Prepare(kind UploadKind, filename string, size int64) (string, error)
	Save(ref string, body io.Reader) error
	Remove(ref string) error
}

// LocalStorage writes uploads into a single directory served at /uploads/.
type LocalStorage struct {
	dir      string
	maxBytes int64
	log      *logrus.Entry
}

func NewLocalStorage(dir string, maxBytes int64) *LocalStorage {
	return &LocalStorage{
		dir:      dir,
		maxBytes: maxBytes,
		log:      logger.For("storage"),
	}
}

func uploadRejected(format string, args ...interface{}) *kerrors.Error {
	return kerrors.BadRequest(ReasonUploadRejected, fmt.Sprintf(format, args...))
}

func (s *LocalStorage) Prepare(kind UploadKind, filename string, size int64) (string, error) {
	name := utils.SecureFilename(filename)
	if name == "" {
		return "", uploadRejected("invalid %s filename", kind)
	}
	ext := utils.FileExt(name)
	if !allowedExts[kind][ext] {
		return "", uploadRejected("%s type .%s is not allowed", kind, ext)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return "", uploadRejected("%s is larger than %d MB", kind, s.maxBytes/1024/1024)
	}
	return strings.SplitN(uuid.NewString(), "-", 2)[0] + "_" + name, nil
}

func (s *LocalStorage) path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", fmt.Errorf("invalid storage reference %q", ref)
	}
	return filepath.Join(s.dir, ref), nil
}

// Save streams into a temporary file and renames it into place, so a partial
// write never shows up under the final name.
func (s *LocalStorage) Save(ref string, body io.Reader) error {
	final, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	tmp := filepath.Join(s.dir, "."+ref+".part")
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create upload %s: %w", ref, err)
	}

	r := body
	if s.maxBytes > 0 {
		r = io.LimitReader(body, s.maxBytes+1)
	}
	written, err := io.Copy(out, r)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && s.maxBytes > 0 && written > s.maxBytes {
		err = ErrUploadTooLarge
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write upload %s: %w", ref, err)
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store upload %s: %w", ref, err)
	}
	s.log.Infof("stored %s (%d bytes)", ref, written)
	return nil
}

func (s *LocalStorage) Remove(ref string) error {
	p, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
