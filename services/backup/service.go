// Package backup archives the release catalog and settings into timestamped
// zip files and restores them on demand.
package backup

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Type indicates how the backup was created
type Type string

const (
	TypeManual     Type = "manual"
	TypeScheduled  Type = "scheduled"
	TypePreRestore Type = "pre_restore"
)

var ErrNotFound = errors.New("backup not found")

// Info contains metadata about a backup file
type Info struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	Type      Type      `json:"type"`
}

// Manifest describes the backup contents
type Manifest struct {
	Version   string            `json:"version"`
	CreatedAt time.Time         `json:"createdAt"`
	Type      Type              `json:"type"`
	Files     map[string]string `json:"files"` // filename -> sha256 checksum
}

// Service creates, lists, prunes and restores backups of the data files.
type Service struct {
	mu        sync.Mutex
	backupDir string
	// sources are the live files included in each archive, keyed by the
	// name they carry inside the zip.
	sources map[string]string
	keep    int
}

// NewService creates a backup service covering the given data files.
// keep bounds how many scheduled backups are retained; manual backups are
// never pruned.
func NewService(backupDir string, sources map[string]string, keep int) (*Service, error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	if keep <= 0 {
		keep = 10
	}
	return &Service{backupDir: backupDir, sources: sources, keep: keep}, nil
}

// Create writes a new backup archive and prunes old scheduled backups.
func (s *Service) Create(backupType Type) (*Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(backupType)
}

func (s *Service) createLocked(backupType Type) (*Info, error) {
	// Sub-second precision so back-to-back backups never collide.
	timestamp := time.Now().UTC().Format("20060102-150405.000000000")
	filename := fmt.Sprintf("fitgirl_backup_%s_%s.zip", backupType, timestamp)
	backupPath := filepath.Join(s.backupDir, filename)

	tmpPath := backupPath + ".tmp"
	zipFile, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}
	defer os.Remove(tmpPath)

	zipWriter := zip.NewWriter(zipFile)
	manifest := Manifest{
		Version:   "1.0",
		CreatedAt: time.Now().UTC(),
		Type:      backupType,
		Files:     make(map[string]string),
	}

	for name, srcPath := range s.sources {
		stat, err := os.Stat(srcPath)
		if os.IsNotExist(err) {
			log.Printf("[backup] Skipping %s (not found)", name)
			continue
		}
		if err != nil || stat.IsDir() {
			continue
		}
		checksum, err := addFileToZip(zipWriter, srcPath, name)
		if err != nil {
			zipWriter.Close()
			zipFile.Close()
			return nil, fmt.Errorf("archive %s: %w", name, err)
		}
		manifest.Files[name] = checksum
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err == nil {
		if w, werr := zipWriter.Create("manifest.json"); werr == nil {
			w.Write(manifestData)
		}
	}

	if err := zipWriter.Close(); err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	if err := zipFile.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmpPath, backupPath); err != nil {
		return nil, fmt.Errorf("move archive into place: %w", err)
	}

	stat, err := os.Stat(backupPath)
	if err != nil {
		return nil, err
	}
	log.Printf("[backup] Created %s (%d bytes)", filename, stat.Size())

	s.pruneLocked()

	return &Info{
		Filename:  filename,
		Size:      stat.Size(),
		CreatedAt: manifest.CreatedAt,
		Type:      backupType,
	}, nil
}

// List returns available backups, newest first.
func (s *Service) List() ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

func (s *Service) listLocked() ([]Info, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "fitgirl_backup_") || !strings.HasSuffix(name, ".zip") {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Filename:  name,
			Size:      stat.Size(),
			CreatedAt: stat.ModTime().UTC(),
			Type:      typeFromFilename(name),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Path resolves a backup filename to its location on disk, rejecting names
// that escape the backup directory.
func (s *Service) Path(filename string) (string, error) {
	if filepath.Base(filename) != filename || !strings.HasSuffix(filename, ".zip") {
		return "", ErrNotFound
	}
	path := filepath.Join(s.backupDir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}

// Restore replaces the live data files with the archive contents. A
// pre-restore backup of the current state is taken first.
func (s *Service) Restore(filename string) error {
	path, err := s.Path(filename)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.createLocked(TypePreRestore); err != nil {
		return fmt.Errorf("pre-restore backup: %w", err)
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	for _, f := range reader.File {
		dest, ok := s.sources[f.Name]
		if !ok {
			continue
		}
		if err := extractFile(f, dest); err != nil {
			return fmt.Errorf("restore %s: %w", f.Name, err)
		}
		log.Printf("[backup] Restored %s", f.Name)
	}
	return nil
}

// Delete removes a backup archive.
func (s *Service) Delete(filename string) error {
	path, err := s.Path(filename)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.Remove(path)
}

// pruneLocked keeps only the newest scheduled backups.
func (s *Service) pruneLocked() {
	backups, err := s.listLocked()
	if err != nil {
		return
	}
	scheduled := 0
	for _, b := range backups {
		if b.Type != TypeScheduled {
			continue
		}
		scheduled++
		if scheduled <= s.keep {
			continue
		}
		if err := os.Remove(filepath.Join(s.backupDir, b.Filename)); err != nil {
			log.Printf("[backup] Prune failed for %s: %v", b.Filename, err)
		} else {
			log.Printf("[backup] Pruned %s", b.Filename)
		}
	}
}

func typeFromFilename(name string) Type {
	for _, t := range []Type{TypePreRestore, TypeScheduled, TypeManual} {
		if strings.Contains(name, string(t)) {
			return t
		}
	}
	return TypeManual
}

// addFileToZip streams a file into the archive and returns its checksum.
func addFileToZip(zw *zip.Writer, srcPath, name string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	w, err := zw.Create(name)
	if err != nil {
		return "", err
	}

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(w, hasher), src); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// extractFile writes one archive member over the destination via tmp+rename.
func extractFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}
