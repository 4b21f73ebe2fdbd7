// Package checkpoint persists and restores training state as one atomic unit.
//
// A checkpoint is a single BSON document holding a format version and the
// four state fields: the next epoch to run, the best validation loss seen so
// far and the model and optimizer parameter snapshots. Files are replaced
// wholesale through a temporary file and a rename, so a reader never sees a
// partially written checkpoint.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Version of the on-disk layout.
const Version = 1

// BestName is the file name of the best checkpoint inside the store directory.
const BestName = "best.ckpt"

var (
	// ErrNotFound is returned by Load when the checkpoint file does not exist.
	ErrNotFound = errors.New("checkpoint: not found")
	// ErrCorrupt is returned by Load when the file cannot be parsed or a field is missing.
	ErrCorrupt = errors.New("checkpoint: corrupt")
)

// Snapshot is a set of named parameter vectors.
type Snapshot map[string][]float64

// State is the resumable training state.
type State struct {
	Epoch     int      `bson:"epoch"`
	BestLoss  float64  `bson:"best_loss"`
	Model     Snapshot `bson:"model"`
	Optimizer Snapshot `bson:"optimizer"`
}

type document struct {
	Version int `bson:"version"`
	State   `bson:",inline"`
}

// required lists the fields Load insists on together with their BSON type.
var required = []struct {
	key string
	typ []bsontype.Type
}{
	{"epoch", []bsontype.Type{bsontype.Int32, bsontype.Int64}},
	{"best_loss", []bsontype.Type{bsontype.Double}},
	{"model", []bsontype.Type{bsontype.EmbeddedDocument}},
	{"optimizer", []bsontype.Type{bsontype.EmbeddedDocument}},
}

// Store saves checkpoints and keeps the best one under Dir/BestName.
type Store struct {
	Dir string
	log logrus.FieldLogger
}

// NewStore creates a store rooted at dir. The directory is created on first save.
func NewStore(dir string, log logrus.FieldLogger) *Store {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Store{Dir: dir, log: log.WithField("component", "checkpoint")}
}

// BestPath is the path of the best checkpoint.
func (s *Store) BestPath() string {
	return filepath.Join(s.Dir, BestName)
}

// RollingPath is the path of the checkpoint written after step of epoch.
func (s *Store) RollingPath(epoch, step int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%d-%d-val.ckpt", epoch, step))
}

// Save writes state to path and, when isBest, also replaces the best checkpoint.
func (s *Store) Save(state *State, isBest bool, path string) error {
	data, err := bson.Marshal(document{Version: Version, State: normalize(state)})
	if err != nil {
		return fmt.Errorf("checkpoint: encode: %w", err)
	}
	if isBest {
		if err := writeAtomic(s.BestPath(), data); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"path":      s.BestPath(),
			"epoch":     state.Epoch,
			"best_loss": state.BestLoss,
		}).Info("saved best checkpoint")
	}
	if err := writeAtomic(path, data); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"path":  path,
		"epoch": state.Epoch,
	}).Debug("saved checkpoint")
	return nil
}

// Load reads and validates the checkpoint at path.
func (s *Store) Load(path string) (*State, error) {
	return Load(path)
}

// Load reads and validates the checkpoint at path.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	raw := bson.Raw(data)
	if err := raw.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrCorrupt, err)
	}
	version, err := raw.LookupErr("version")
	if err != nil {
		return nil, fmt.Errorf("%s: %w: no version", path, ErrCorrupt)
	}
	if v, ok := version.AsInt64OK(); !ok || v != Version {
		return nil, fmt.Errorf("%s: %w: unsupported version %v", path, ErrCorrupt, version)
	}
	for _, field := range required {
		val, err := raw.LookupErr(field.key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: missing %s", path, ErrCorrupt, field.key)
		}
		if !oneOf(val.Type, field.typ) {
			return nil, fmt.Errorf("%s: %w: %s has type %s", path, ErrCorrupt, field.key, val.Type)
		}
	}

	var doc document
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrCorrupt, err)
	}
	st := normalize(&doc.State)
	return &st, nil
}

// normalize replaces nil snapshots with empty ones so that both fields are
// always written as documents.
func normalize(state *State) State {
	st := *state
	if st.Model == nil {
		st.Model = Snapshot{}
	}
	if st.Optimizer == nil {
		st.Optimizer = Snapshot{}
	}
	return st
}

func oneOf(t bsontype.Type, ts []bsontype.Type) bool {
	for _, x := range ts {
		if t == x {
			return true
		}
	}
	return false
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".ckpt-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
