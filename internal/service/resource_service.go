package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/notelift/notelift/internal/enex"
	"github.com/notelift/notelift/internal/enml"
	"github.com/notelift/notelift/internal/filestore"
	appErr "github.com/notelift/notelift/internal/pkg/errors"
)

const dedupCacheSize = 4096

// ResourceService decodes embedded resources, content-addresses them and
// hands the bytes to the file store. It owns hashing and naming policy, not
// transport or durability.
type ResourceService struct {
	store       filestore.Store
	attachments AttachmentStore
	dedupCache  *lru.Cache[string, storedResource]
}

// storedResource is what a dedup hit hands back: both values must point at
// the blob that was actually uploaded, or the persisted attachment row would
// reference a key that does not exist.
type storedResource struct {
	FileKey string
	URL     string
}

func NewResourceService(store filestore.Store, attachments AttachmentStore) *ResourceService {
	cache, _ := lru.New[string, storedResource](dedupCacheSize)
	return &ResourceService{store: store, attachments: attachments, dedupCache: cache}
}

// ResourceRef namespaces storage keys so attachments stay attributable and
// cleanable per user.
type ResourceRef struct {
	UserID string
	NoteID string
}

type ExtractedResource struct {
	StorageKey string
	URL        string
	Hash       string
	Filename   string
	MimeType   string
	Size       int64
	Width      int
	Height     int
}

type ResourceError struct {
	Index int
	Err   error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource %d: %v", e.Index, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

type ExtractResult struct {
	Extracted []ExtractedResource
	HashMap   enml.ResourceMap
	Errors    []*ResourceError
}

// ExtractOne decodes, hashes, names and uploads a single resource. The hash
// is MD5 over the decoded bytes: that is the value the note markup uses in
// its media references, so any other algorithm would orphan every reference.
func (s *ResourceService) ExtractOne(ctx context.Context, res enex.EmbeddedResource, ref ResourceRef) (*ExtractedResource, error) {
	data, err := decodeBase64(res.Data)
	if err != nil {
		return nil, fmt.Errorf("decode resource data: %w", err)
	}
	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])
	filename := deriveFilename(res.FileName, hash, res.Mime)

	extracted := &ExtractedResource{
		Hash:     hash,
		Filename: filename,
		MimeType: res.Mime,
		Size:     int64(len(data)),
		Width:    res.Width,
		Height:   res.Height,
	}

	if existing, ok := s.findExisting(ctx, ref.UserID, hash); ok {
		extracted.URL = existing.URL
		extracted.StorageKey = existing.FileKey
		return extracted, nil
	}

	key := buildStorageKey(ref, filename)
	if err := s.store.Save(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, fmt.Errorf("upload resource: %w", err)
	}
	extracted.StorageKey = key
	extracted.URL = s.store.URL(key)
	s.dedupCache.Add(dedupKey(ref.UserID, hash), storedResource{FileKey: key, URL: extracted.URL})
	return extracted, nil
}

// ExtractAll never fails as a whole: each bad resource is recorded with its
// index and the rest keep going, so the enclosing note import proceeds with
// gaps the converter turns into placeholders.
func (s *ResourceService) ExtractAll(ctx context.Context, resources []enex.EmbeddedResource, ref ResourceRef) *ExtractResult {
	result := &ExtractResult{
		Extracted: make([]ExtractedResource, 0, len(resources)),
		HashMap:   make(enml.ResourceMap, len(resources)),
		Errors:    make([]*ResourceError, 0),
	}
	for index, res := range resources {
		extracted, err := s.ExtractOne(ctx, res, ref)
		if err != nil {
			logutil.GetLogger(ctx).Warn("resource extraction failed",
				zap.Int("index", index),
				zap.String("note_id", ref.NoteID),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, &ResourceError{Index: index, Err: err})
			continue
		}
		result.Extracted = append(result.Extracted, *extracted)
		result.HashMap[extracted.Hash] = enml.Resource{
			URL:      extracted.URL,
			Mime:     extracted.MimeType,
			FileName: extracted.Filename,
		}
	}
	return result
}

// FindExisting is the advisory dedup lookup: it answers whether identical
// content is already stored for this user, but nothing guarantees a global
// content-addressed store.
func (s *ResourceService) FindExisting(ctx context.Context, userID, hash string) (string, bool) {
	existing, ok := s.findExisting(ctx, userID, hash)
	return existing.URL, ok
}

func (s *ResourceService) findExisting(ctx context.Context, userID, hash string) (storedResource, bool) {
	key := dedupKey(userID, hash)
	if stored, ok := s.dedupCache.Get(key); ok {
		return stored, true
	}
	if s.attachments == nil {
		return storedResource{}, false
	}
	existing, err := s.attachments.FindByHash(ctx, userID, hash)
	if err != nil {
		if !appErr.IsNotFound(err) {
			logutil.GetLogger(ctx).Warn("dedup lookup failed", zap.String("hash", hash), zap.Error(err))
		}
		return storedResource{}, false
	}
	stored := storedResource{FileKey: existing.FileKey, URL: existing.URL}
	s.dedupCache.Add(key, stored)
	return stored, true
}

func dedupKey(userID, hash string) string {
	return userID + "/" + hash
}

func buildStorageKey(ref ResourceRef, filename string) string {
	return ref.UserID + "_" + ref.NoteID + "_" + filename
}

var base64Whitespace = strings.NewReplacer("\n", "", "\r", "", "\t", "", " ", "")

func decodeBase64(data string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Whitespace.Replace(data))
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

const maxFilenameBase = 64

// deriveFilename prefers the original name (sanitized, capped, made
// collision-resistant with a hash fragment) and otherwise synthesizes one
// from the hash and the MIME type.
func deriveFilename(original, hash, mime string) string {
	ext := extensionForMime(mime)
	original = strings.TrimSpace(filepath.Base(original))
	if original == "" || original == "." {
		return hash + ext
	}
	if origExt := filepath.Ext(original); origExt != "" && len(origExt) <= 8 {
		ext = strings.ToLower(unsafeFilenameChars.ReplaceAllString(origExt, ""))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		original = strings.TrimSuffix(original, origExt)
	}
	base := unsafeFilenameChars.ReplaceAllString(original, "_")
	base = strings.Trim(base, "._-")
	if base == "" {
		return hash + ext
	}
	if len(base) > maxFilenameBase {
		base = base[:maxFilenameBase]
	}
	return base + "_" + hash[:8] + ext
}

var mimeExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/bmp":     ".bmp",
	"image/svg+xml": ".svg",
	"image/tiff":    ".tif",
	"audio/mpeg":    ".mp3",
	"audio/wav":     ".wav",
	"audio/x-wav":   ".wav",
	"audio/mp4":     ".m4a",
	"audio/ogg":     ".ogg",
	"video/mp4":     ".mp4",
	"video/webm":    ".webm",
	"video/quicktime": ".mov",
	"application/pdf": ".pdf",
	"application/json": ".json",
	"application/zip":  ".zip",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       ".xlsx",
	"text/plain": ".txt",
	"text/html":  ".html",
}

func extensionForMime(mime string) string {
	if ext, ok := mimeExtensions[strings.ToLower(mime)]; ok {
		return ext
	}
	return ".bin"
}
