// Package storage persists trained waste models in a single BoltDB file.
// Each training run stores its ensemble, the fitted category encoders and a
// run summary under a generated run ID; the meta bucket tracks the latest
// run.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mandrita16/WastePrediction/internal/encoder"
	"github.com/mandrita16/WastePrediction/internal/ml"

	"go.etcd.io/bbolt"
)

const (
	modelsBucket   = "models"   // run ID -> encoded ensemble
	encodersBucket = "encoders" // run ID -> encoder state
	runsBucket     = "runs"     // time-ordered key -> run summary
	metaBucket     = "meta"

	latestKey = "latest"
)

// ErrNoArtifact is returned when no trained model has been saved.
var ErrNoArtifact = errors.New("storage: no model artifact")

// RunSummary describes one training run.
type RunSummary struct {
	RunID      string       `json:"run_id"`
	CreatedAt  time.Time    `json:"created_at"`
	Dataset    string       `json:"dataset"`
	Rows       int          `json:"rows"`
	TrainRows  int          `json:"train_rows"`
	TestRows   int          `json:"test_rows"`
	Classes    []string     `json:"classes"`
	NoiseRate  float64      `json:"noise_rate"`
	Flipped    int          `json:"flipped_labels"`
	Seed       int64        `json:"seed"`
	Accuracy   float64      `json:"ensemble_accuracy"`
	CV         []ml.CVScore `json:"cross_validation"`
	FeatureSet []string     `json:"features"`
}

// Artifact is everything needed to apply a trained ensemble to new rows.
type Artifact struct {
	Run      RunSummary
	Ensemble *ml.Ensemble
	Encoders encoder.State
}

// Store provides persistent storage for model artifacts using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the artifact file at path, creating its parent
// directory when needed.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create model directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{modelsBucket, encodersBucket, runsBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. Closing twice is safe.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func runKey(r RunSummary) []byte {
	return []byte(fmt.Sprintf("%020d_%s", r.CreatedAt.UnixNano(), r.RunID))
}

// Save writes an artifact in one transaction and marks it as latest. A
// missing RunID or CreatedAt is filled in. The run ID is returned.
func (s *Store) Save(a Artifact) (string, error) {
	if a.Ensemble == nil {
		return "", fmt.Errorf("save artifact: nil ensemble")
	}
	if a.Run.RunID == "" {
		a.Run.RunID = uuid.NewString()
	}
	if a.Run.CreatedAt.IsZero() {
		a.Run.CreatedAt = time.Now().UTC()
	}

	model, err := a.Ensemble.Marshal()
	if err != nil {
		return "", fmt.Errorf("marshal ensemble: %w", err)
	}
	enc, err := json.Marshal(a.Encoders)
	if err != nil {
		return "", fmt.Errorf("marshal encoders: %w", err)
	}
	run, err := json.Marshal(a.Run)
	if err != nil {
		return "", fmt.Errorf("marshal run: %w", err)
	}

	id := []byte(a.Run.RunID)
	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(modelsBucket)).Put(id, model); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(encodersBucket)).Put(id, enc); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(runsBucket)).Put(runKey(a.Run), run); err != nil {
			return err
		}
		return tx.Bucket([]byte(metaBucket)).Put([]byte(latestKey), id)
	})
	if err != nil {
		return "", fmt.Errorf("store artifact: %w", err)
	}
	return a.Run.RunID, nil
}

// Latest loads the most recently saved artifact.
func (s *Store) Latest() (*Artifact, error) {
	var id []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(metaBucket)).Get([]byte(latestKey)); v != nil {
			id = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, ErrNoArtifact
	}
	return s.Load(string(id))
}

// Load reads the artifact of runID.
func (s *Store) Load(runID string) (*Artifact, error) {
	var model, enc []byte
	var summary *RunSummary

	err := s.db.View(func(tx *bbolt.Tx) error {
		id := []byte(runID)
		if v := tx.Bucket([]byte(modelsBucket)).Get(id); v != nil {
			model = append([]byte(nil), v...)
		}
		if v := tx.Bucket([]byte(encodersBucket)).Get(id); v != nil {
			enc = append([]byte(nil), v...)
		}
		c := tx.Bucket([]byte(runsBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var r RunSummary
			if err := json.Unmarshal(v, &r); err != nil {
				continue // Skip malformed records
			}
			if r.RunID == runID {
				summary = &r
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if model == nil || enc == nil || summary == nil {
		return nil, fmt.Errorf("%w: run %s", ErrNoArtifact, runID)
	}

	ensemble, err := ml.UnmarshalEnsemble(model)
	if err != nil {
		return nil, err
	}
	var state encoder.State
	if err := json.Unmarshal(enc, &state); err != nil {
		return nil, fmt.Errorf("decode encoders: %w", err)
	}
	return &Artifact{Run: *summary, Ensemble: ensemble, Encoders: state}, nil
}

// Runs lists every stored run, oldest first.
func (s *Store) Runs() ([]RunSummary, error) {
	var runs []RunSummary
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(runsBucket)).ForEach(func(_, v []byte) error {
			var r RunSummary
			if err := json.Unmarshal(v, &r); err != nil {
				return nil // Skip malformed records
			}
			runs = append(runs, r)
			return nil
		})
	})
	return runs, err
}
