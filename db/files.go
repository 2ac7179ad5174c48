package db

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const snapshotExt = ".json"

// FileStore reads and writes game snapshots as JSON files in one directory.
type FileStore struct {
	dir string
	log zerolog.Logger
}

func NewFileStore(dir string, log zerolog.Logger) *FileStore {
	return &FileStore{dir: dir, log: log.With().Str("component", "file_store").Logger()}
}

func (fs *FileStore) Dir() string { return fs.dir }

// List summarises every readable snapshot, sorted by name. Files that do not
// parse are skipped.
func (fs *FileStore) List() ([]models.SnapshotInfo, error) {
	entries, err := os.ReadDir(fs.dir)
	if os.IsNotExist(err) {
		return []models.SnapshotInfo{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read games dir %s", fs.dir)
	}

	infos := make([]models.SnapshotInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != snapshotExt {
			continue
		}
		snap, err := fs.Load(entry.Name())
		if err != nil {
			fs.log.Warn().Err(err).Str("file", entry.Name()).Msg("skipping unreadable game file")
			continue
		}
		infos = append(infos, models.SnapshotInfo{
			Filename:  entry.Name(),
			GameID:    snap.GameID,
			Name:      snap.Name,
			SongCount: len(snap.Playlist),
			CardCount: len(snap.Cards),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Name == infos[j].Name {
			return infos[i].Filename < infos[j].Filename
		}
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

func (fs *FileStore) Load(filename string) (models.GameSnapshot, error) {
	path, err := fs.path("load game", filename)
	if err != nil {
		return models.GameSnapshot{}, err
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return models.GameSnapshot{}, models.NotFoundf("load game", "game file %s not found", filename)
	}
	if err != nil {
		return models.GameSnapshot{}, errors.Wrapf(err, "read %s", filename)
	}
	var snap models.GameSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return models.GameSnapshot{}, models.Validationf("load game", "game file %s is not valid JSON: %v", filename, err)
	}
	return snap, nil
}

// Save writes snap to filename, replacing any previous file. An empty
// snapshot name is taken from the filename.
func (fs *FileStore) Save(snap models.GameSnapshot, filename string) (string, error) {
	if !strings.HasSuffix(filename, snapshotExt) {
		filename += snapshotExt
	}
	path, err := fs.path("save game", filename)
	if err != nil {
		return "", err
	}
	if snap.Name == "" {
		snap.Name = strings.ReplaceAll(strings.TrimSuffix(filename, snapshotExt), "_", " ")
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encode snapshot")
	}
	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create games dir %s", fs.dir)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", filename)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", errors.Wrapf(err, "replace %s", filename)
	}
	fs.log.Info().Str("file", filename).Str("game_id", snap.GameID.String()).Msg("game saved")
	return filename, nil
}

func (fs *FileStore) path(op, filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) || strings.HasPrefix(filename, ".") {
		return "", models.Validationf(op, "invalid filename %q", filename)
	}
	if filepath.Ext(filename) != snapshotExt {
		return "", models.Validationf(op, "filename %q must end in %s", filename, snapshotExt)
	}
	return filepath.Join(fs.dir, filename), nil
}
